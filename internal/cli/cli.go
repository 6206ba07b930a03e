// Package cli 是 delete-spam-comments 的命令行入口。
//
// 流程: 解析 flag → 校验 → 加载 settings → 归一化参数 → bootstrap → 调用一次 DeleteSpam。
// 本包不删除任何数据，也不输出统计; 两者都由 comments.Command 负责。
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comment-utils/delete-spam-comments/internal/comments"
	"github.com/comment-utils/delete-spam-comments/internal/config"
	"github.com/comment-utils/delete-spam-comments/pkg/logger"
)

// DefaultAge 未指定 --age (或为 0) 时的天数。
const DefaultAge = 14

// 退出码。
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ErrUsage 命令行用法错误 (缺少 --settings、flag 非法等)。
var ErrUsage = errors.New("usage error")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// Options 原始命令行参数。
type Options struct {
	Age      int
	DryRun   bool
	Settings string
	Verbose  bool
}

// Params 把 Options 归一化为 DeleteSpam 的调用参数。
func (o Options) Params() comments.Params {
	age := o.Age
	if age == 0 {
		age = DefaultAge
	}
	verbosity := 1
	if o.Verbose {
		verbosity = comments.VerbosityDetail
	}
	return comments.Params{Age: age, DryRun: o.DryRun, Verbosity: verbosity}
}

// Deleter 删除垃圾评论的能力 (comments.Command 实现)。
type Deleter interface {
	DeleteSpam(ctx context.Context, p comments.Params) (int64, error)
}

// BootstrapFunc 由 settings 构造 Deleter; 返回的 close 在调用结束后执行。
type BootstrapFunc func(ctx context.Context, s *config.Settings, out io.Writer) (Deleter, func(), error)

// DefaultBootstrap 连接 PostgreSQL 并返回 comments.Command。
func DefaultBootstrap(ctx context.Context, s *config.Settings, out io.Writer) (Deleter, func(), error) {
	cmd, closeFn, err := comments.Open(ctx, s, out)
	if err != nil {
		return nil, nil, err
	}
	return cmd, closeFn, nil
}

// App 持有可替换的依赖, 测试注入记录型 stub。
type App struct {
	Out          io.Writer
	Err          io.Writer
	LoadSettings func(path string) (*config.Settings, error)
	Bootstrap    BootstrapFunc
}

// NewApp 使用真实 settings 加载与 PostgreSQL bootstrap。
func NewApp(out, errOut io.Writer) *App {
	return &App{
		Out:          out,
		Err:          errOut,
		LoadSettings: config.Load,
		Bootstrap:    DefaultBootstrap,
	}
}

// Execute 以 os.Stdout/os.Stderr 运行一次命令。
func Execute(ctx context.Context, args []string) error {
	return NewApp(os.Stdout, os.Stderr).Execute(ctx, args)
}

// Execute 解析 args 并运行; 用法错误时向 Err 打印 usage。
func (a *App) Execute(ctx context.Context, args []string) error {
	if args == nil {
		args = []string{} // nil 会让 cobra 回退读取 os.Args
	}
	cmd := a.Command()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if errors.Is(err, ErrUsage) {
		fmt.Fprint(a.Err, cmd.UsageString())
	}
	return err
}

// Command 构造 cobra 根命令 (每次调用都是独立实例)。
func (a *App) Command() *cobra.Command {
	var opts Options
	cmd := &cobra.Command{
		Use:   "delete-spam-comments --settings=FILE [options]",
		Short: "Delete non-public comments older than an age threshold",
		Long: `Removes spam comments from the database.

A comment is spam when its public flag is false and it is older than
--age days. The total number of deleted comments is always printed;
--verbose also prints each comment as it is deleted.

Intended to run from cron, e.g. every Sunday at midnight:

  0 0 * * sun delete-spam-comments --settings=/etc/blog/settings.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unexpected arguments %q", args)
			}
			return nil
		},
		PreRunE: func(*cobra.Command, []string) error {
			return opts.validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), opts)
		},
	}
	cmd.SetOut(a.Out)
	cmd.SetErr(a.Err)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	f := cmd.Flags()
	f.IntVarP(&opts.Age, "age", "a", DefaultAge,
		"The age threshold, in days, past which a non-public comment will be considered spam, and thus be deleted.")
	f.BoolVarP(&opts.DryRun, "dry-run", "d", false,
		"Does not delete any comments, but merely outputs the number of comments which would have been deleted.")
	f.StringVarP(&opts.Settings, "settings", "s", "",
		"Settings file to use (YAML). This argument is required.")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false,
		"Run verbosely, printing information to standard output about each comment as it is deleted.")
	return cmd
}

func (o Options) validate() error {
	if strings.TrimSpace(o.Settings) == "" {
		return usageErrorf("you must specify a settings file (--settings)")
	}
	if o.Age < 0 || o.Age > comments.MaxAge {
		return usageErrorf("--age must be between 0 and %d, got %d", comments.MaxAge, o.Age)
	}
	return nil
}

func (a *App) run(ctx context.Context, opts Options) error {
	settings, err := a.LoadSettings(opts.Settings)
	if err != nil {
		return err
	}
	logger.Init(settings.Log.Level, settings.Log.Format)
	log := logger.With(logger.FieldSettings, opts.Settings)
	ctx = logger.WithContext(ctx, log)
	log.Debug("settings loaded", logger.FieldTable, settings.Comments.Table)

	params := opts.Params()
	deleter, closeFn, err := a.Bootstrap(ctx, settings, a.Out)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	_, err = deleter.DeleteSpam(ctx, params)
	return err
}

// ExitCode 把 Execute 的错误映射为进程退出码。
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	default:
		return ExitFailure
	}
}
