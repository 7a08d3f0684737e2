//go:generate go run github.com/Songmu/gocredits/cmd/gocredits@v0.3.0 -w
package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/common"
	subinit "github.com/ai-field-tools/iris-api/cmd/iris/subcommands/initialize"
	sublic "github.com/ai-field-tools/iris-api/cmd/iris/subcommands/license"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/logger"
	submodel "github.com/ai-field-tools/iris-api/cmd/iris/subcommands/model"
	subpredict "github.com/ai-field-tools/iris-api/cmd/iris/subcommands/predict"
	subsignin "github.com/ai-field-tools/iris-api/cmd/iris/subcommands/signin"
	subver "github.com/ai-field-tools/iris-api/cmd/iris/subcommands/version"
	"github.com/ai-field-tools/iris-api/pkg/utils/try"
	"github.com/youta-t/flarc"
)

//go:embed CREDITS
var CREDITS string

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := try.To(common.Flags()).OrFatal(logger)
	init := try.To(subinit.New()).OrFatal(logger)
	signin := try.To(subsignin.New()).OrFatal(logger)
	predict := try.To(subpredict.New()).OrFatal(logger)
	model := try.To(submodel.New()).OrFatal(logger)
	license := try.To(sublic.New(CREDITS)).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	iris := try.To(
		flarc.NewCommandGroup(
			"Iris classification commandline interface",
			cf,
			flarc.WithSubcommand("init", init),
			flarc.WithSubcommand("signin", signin),
			flarc.WithSubcommand("predict", predict),
			flarc.WithSubcommand("model", model),
			flarc.WithSubcommand("license", license),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, iris, flarc.WithHelp(true)))
}
