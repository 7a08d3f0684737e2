package signin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	prof "github.com/ai-field-tools/iris-api/cmd/iris/config/profiles"
	krest "github.com/ai-field-tools/iris-api/cmd/iris/rest"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/common"
	apiauth "github.com/ai-field-tools/iris-api/pkg/api/types/auth"
	"github.com/youta-t/flarc"
	"golang.org/x/term"
)

type Flag struct {
	User string `flag:"user" alias:"u" metavar:"NAME" help:"username to sign in as"`
}

type Signin func(
	ctx context.Context,
	client krest.IrisClient,
	username string,
	password string,
) (apiauth.LoginResponse, error)

type Option struct {
	signin Signin
}

func WithSignin(signin Signin) func(*Option) *Option {
	return func(opt *Option) *Option {
		opt.signin = signin
		return opt
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{
		signin: RunSignin,
	}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Sign in to the iris API and store tokens in your profile.",
		Flag{},
		flarc.Args{},
		common.NewTaskWithCommonFlag(Task(option.signin)),
		flarc.WithDescription(`
Sign in to the iris API and store tokens in your profile.

The password is asked on the terminal. When stdin is not a terminal,
one line is read from it instead, so that
"echo $PASSWORD | {{ .Command }} --user someone" works in scripts.

Later commands send the stored access token with their requests.
Predictions made while signed in are recorded under your account.
`),
	)
}

func Task(signin Signin) common.IrisTaskWithCommonFlag[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		cf common.CommonFlags,
		cl flarc.Commandline[Flag],
		_ []any,
	) error {
		flags := cl.Flags()
		if flags.User == "" {
			return fmt.Errorf("%w: --user is required", flarc.ErrUsage)
		}

		store, err := prof.LoadProfileStore(cf.ProfileStore)
		if err != nil {
			if errors.Is(err, prof.ErrProfileStoreNotFound) {
				return fmt.Errorf(
					"%w: profile store (%s) is not found. Please try `iris init` first",
					err, cf.ProfileStore,
				)
			}
			return fmt.Errorf("failed to load profile store (%s): %w", cf.ProfileStore, err)
		}
		profile, ok := store[cf.Profile]
		if !ok {
			return fmt.Errorf(
				"profile '%s' not found in the profile store (%s). Please try `iris init` first",
				cf.Profile, cf.ProfileStore,
			)
		}

		client, err := krest.NewClient(profile)
		if err != nil {
			return fmt.Errorf("failed to create iris client: %w", err)
		}

		password, err := readPassword(cl.Stdin(), cl.Stderr())
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if password == "" {
			return fmt.Errorf("%w: password must not be empty", flarc.ErrUsage)
		}

		tokens, err := signin(ctx, client, flags.User, password)
		if err != nil {
			return err
		}

		profile.Auth = prof.IrisAuth{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
		}
		if err := store.Save(cf.ProfileStore); err != nil {
			return fmt.Errorf("failed to save profile store (%s): %w", cf.ProfileStore, err)
		}

		logger.Printf("signed in as %s", tokens.User.Username)
		return nil
	}
}

func RunSignin(
	ctx context.Context, client krest.IrisClient, username string, password string,
) (apiauth.LoginResponse, error) {
	return client.Signin(ctx, username, password)
}

// readPassword asks for a password without echo when stdin is a
// terminal. Otherwise it consumes one line of stdin.
func readPassword(stdin io.Reader, prompt io.Writer) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
