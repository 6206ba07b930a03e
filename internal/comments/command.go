// Package comments 实现 "delete spam comments" 操作。
//
// 垃圾评论 = is_public 为 FALSE 且日期早于 now - age 天的评论。
// Command 负责选择、删除 (或 dry-run 计数)、逐条明细输出 (verbosity 2)
// 以及无条件的总数输出; 调用方只传 Params。
package comments

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/comment-utils/delete-spam-comments/internal/config"
	"github.com/comment-utils/delete-spam-comments/internal/database"
	apperrors "github.com/comment-utils/delete-spam-comments/pkg/errors"
	"github.com/comment-utils/delete-spam-comments/pkg/logger"
	"github.com/comment-utils/delete-spam-comments/pkg/util"
)

// VerbosityDetail 达到该级别时逐条输出评论。
const VerbosityDetail = 2

// MaxAge 允许的最大天数 (100 年); 更大的值会让 AddDate 溢出, cutoff 落到未来。
const MaxAge = 36500

const summaryWidth = 60

// Params 一次删除调用的参数。
type Params struct {
	Age       int  // 天数, >= 0
	DryRun    bool // 只统计不删除
	Verbosity int  // 1 = 仅总数, 2 = 逐条明细
}

// Repository SpamStore 的行为抽象 (Command 测试用)。
type Repository interface {
	Count(ctx context.Context, cutoff time.Time) (int64, error)
	List(ctx context.Context, cutoff time.Time) ([]Comment, error)
	Delete(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteReturning(ctx context.Context, cutoff time.Time) ([]Comment, error)
}

// Command 删除垃圾评论。
type Command struct {
	repo Repository
	out  io.Writer
	now  func() time.Time
}

// NewCommand 创建 Command，结果输出到 out。
func NewCommand(repo Repository, out io.Writer) *Command {
	return &Command{repo: repo, out: out, now: time.Now}
}

// Open 按 settings 建立连接池并返回 Command，close 释放连接池。
func Open(ctx context.Context, s *config.Settings, out io.Writer) (*Command, func(), error) {
	if s == nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "Comments.Open", "settings is nil")
	}
	pool, err := database.NewPool(ctx, s.Database)
	if err != nil {
		return nil, nil, err
	}
	return NewCommand(NewSpamStore(pool, s.Comments), out), pool.Close, nil
}

// Cutoff 返回 age 天前的时间点; 早于它的评论视为过期。
func Cutoff(now time.Time, age int) time.Time {
	return now.AddDate(0, 0, -age)
}

// DeleteSpam 删除 (或 dry-run 统计) 垃圾评论，返回受影响条数。
func (c *Command) DeleteSpam(ctx context.Context, p Params) (int64, error) {
	if p.Age < 0 || p.Age > MaxAge {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidInput, "Comments.DeleteSpam", "age must be between 0 and %d, got %d", MaxAge, p.Age)
	}
	start := c.now()
	cutoff := Cutoff(start, p.Age)
	if cutoff.After(start) {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidInput, "Comments.DeleteSpam", "cutoff %s is in the future", cutoff.UTC().Format(time.RFC3339))
	}
	detail := util.ClampInt(p.Verbosity, 1, VerbosityDetail) == VerbosityDetail
	log := logger.FromContext(ctx).With(logger.FieldComponent, "delete_spam_comments")

	var (
		n   int64
		err error
	)
	switch {
	case p.DryRun && detail:
		var items []Comment
		if items, err = c.repo.List(ctx, cutoff); err == nil {
			c.printEach("Would delete", items)
			n = int64(len(items))
		}
	case p.DryRun:
		n, err = c.repo.Count(ctx, cutoff)
	case detail:
		var items []Comment
		if items, err = c.repo.DeleteReturning(ctx, cutoff); err == nil {
			c.printEach("Deleting", items)
			n = int64(len(items))
		}
	default:
		n, err = c.repo.Delete(ctx, cutoff)
	}
	if err != nil {
		log.Error("spam sweep failed", logger.FieldError, err, logger.FieldAgeDays, p.Age, logger.FieldDryRun, p.DryRun)
		return 0, err
	}

	if p.DryRun {
		fmt.Fprintf(c.out, "Would delete %d spam comments\n", n)
	} else {
		fmt.Fprintf(c.out, "Deleted %d spam comments\n", n)
	}
	log.Info("spam sweep finished",
		logger.FieldCount, n,
		logger.FieldAgeDays, p.Age,
		logger.FieldDryRun, p.DryRun,
		logger.FieldVerbosity, p.Verbosity,
		logger.FieldCutoff, cutoff.UTC().Format(time.RFC3339),
		logger.FieldDurationMS, c.now().Sub(start).Milliseconds(),
	)
	return n, nil
}

func (c *Command) printEach(verb string, items []Comment) {
	for _, it := range items {
		fmt.Fprintf(c.out, "%s: #%s %s\n", verb, it.ID,
			util.Truncate(util.FirstNonEmpty(it.Summary, "(empty)"), summaryWidth))
	}
}
