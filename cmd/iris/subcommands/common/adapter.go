package common

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ai-field-tools/iris-api/cmd/iris/config/profiles"
	krest "github.com/ai-field-tools/iris-api/cmd/iris/rest"
	"github.com/youta-t/flarc"
)

type IrisTaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTaskWithCommonFlag plucks CommonFlags out of the group's params.
//
// Use this for commands which manage the profile store themselves.
func NewTaskWithCommonFlag[T any](task IrisTaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := log.New(cl.Stderr(), "", log.LstdFlags)
		logger.SetPrefix(fmt.Sprintf("[%s] ", cl.Fullname()))

		return task(
			ctx,
			logger,
			commonFlag,
			cl,
			newpos,
		)
	}
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	client krest.IrisClient,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask wraps task with profile loading and client construction.
func NewTask[T any](task Task[T]) flarc.Task[T] {

	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		store, err := profiles.LoadProfileStore(commonFlag.ProfileStore)
		if err != nil {
			if errors.Is(err, profiles.ErrProfileStoreNotFound) {
				return fmt.Errorf(
					"%w: profile store (%s) is not found. Please try `iris init` first",
					err, commonFlag.ProfileStore,
				)
			}
			return fmt.Errorf(
				"%w: failed to load profile store (%s)",
				err, commonFlag.ProfileStore,
			)
		}
		prof, ok := store[commonFlag.Profile]
		if !ok {
			return fmt.Errorf(
				"profile '%s' not found in the profile store (%s). Please try `iris init` first",
				commonFlag.Profile, commonFlag.ProfileStore,
			)
		}

		client, err := krest.NewClient(prof)
		if err != nil {
			return fmt.Errorf(
				"%w: failed to create iris client. Your profile (%s in %s) can be broken.\n\nRemove it and try `iris init` again",
				err, commonFlag.Profile, commonFlag.ProfileStore,
			)
		}
		return task(ctx, logger, client, cl, params)
	})
}
