package common

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/terrainkit/terrainkit/pkg/configs"
	"github.com/youta-t/flarc"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
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

		return task(ctx, logger, commonFlag, cl, newpos)
	}
}

// Env is what every task runs with.
type Env struct {
	Config configs.Config
	Flags  CommonFlags
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	env Env,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTask[T any](task Task[T]) flarc.Task[T] {
	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		conf, err := commonFlag.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("%w: failed to load configuration", err)
		}
		logger.Printf("project root: %s", conf.Root)
		return task(ctx, logger, Env{Config: conf, Flags: commonFlag}, cl, params)
	})
}
