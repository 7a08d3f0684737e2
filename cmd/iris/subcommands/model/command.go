package model

import (
	"context"
	"encoding/json"
	"log"

	krest "github.com/ai-field-tools/iris-api/cmd/iris/rest"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/common"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show metadata of the model serving predictions.",
		struct{}{},
		flarc.Args{},
		common.NewTask(Task),
	)
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	client krest.IrisClient,
	cl flarc.Commandline[struct{}],
	_ []any,
) error {
	detail, err := client.GetModel(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cl.Stdout())
	enc.SetIndent("", "    ")
	return enc.Encode(detail)
}
