package comments

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	apperrors "github.com/comment-utils/delete-spam-comments/pkg/errors"
)

type fakeRepo struct {
	items   []Comment
	count   int64
	err     error
	calls   []string
	cutoffs []time.Time
}

func (f *fakeRepo) record(name string, cutoff time.Time) {
	f.calls = append(f.calls, name)
	f.cutoffs = append(f.cutoffs, cutoff)
}

func (f *fakeRepo) Count(_ context.Context, cutoff time.Time) (int64, error) {
	f.record("Count", cutoff)
	return f.count, f.err
}

func (f *fakeRepo) List(_ context.Context, cutoff time.Time) ([]Comment, error) {
	f.record("List", cutoff)
	return f.items, f.err
}

func (f *fakeRepo) Delete(_ context.Context, cutoff time.Time) (int64, error) {
	f.record("Delete", cutoff)
	return f.count, f.err
}

func (f *fakeRepo) DeleteReturning(_ context.Context, cutoff time.Time) ([]Comment, error) {
	f.record("DeleteReturning", cutoff)
	return f.items, f.err
}

var fixedNow = time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)

func newTestCommand(repo Repository) (*Command, *bytes.Buffer) {
	var out bytes.Buffer
	c := NewCommand(repo, &out)
	c.now = func() time.Time { return fixedNow }
	return c, &out
}

func TestCutoff(t *testing.T) {
	got := Cutoff(fixedNow, 14)
	want := time.Date(2026, 10, 4, 3, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Cutoff = %v, want %v", got, want)
	}
	if !Cutoff(fixedNow, 0).Equal(fixedNow) {
		t.Error("Cutoff(now, 0) should equal now")
	}
}

func TestDeleteSpamModes(t *testing.T) {
	two := []Comment{{ID: "11", Summary: "cheap pills"}, {ID: "12", Summary: "   "}}

	tests := []struct {
		name      string
		params    Params
		wantCall  string
		wantN     int64
		wantLines []string
		noLines   []string
	}{
		{
			name:      "delete summary only",
			params:    Params{Age: 14, Verbosity: 1},
			wantCall:  "Delete",
			wantN:     5,
			wantLines: []string{"Deleted 5 spam comments"},
			noLines:   []string{"Deleting:"},
		},
		{
			name:      "delete verbose",
			params:    Params{Age: 14, Verbosity: 2},
			wantCall:  "DeleteReturning",
			wantN:     2,
			wantLines: []string{"Deleting: #11 cheap pills", "Deleting: #12 (empty)", "Deleted 2 spam comments"},
		},
		{
			name:      "dry run summary only",
			params:    Params{Age: 7, DryRun: true, Verbosity: 1},
			wantCall:  "Count",
			wantN:     5,
			wantLines: []string{"Would delete 5 spam comments"},
			noLines:   []string{"Deleted"},
		},
		{
			name:      "dry run verbose",
			params:    Params{Age: 7, DryRun: true, Verbosity: 2},
			wantCall:  "List",
			wantN:     2,
			wantLines: []string{"Would delete: #11 cheap pills", "Would delete 2 spam comments"},
			noLines:   []string{"Deleted"},
		},
		{
			name:      "verbosity above detail",
			params:    Params{Age: 14, Verbosity: 5},
			wantCall:  "DeleteReturning",
			wantN:     2,
			wantLines: []string{"Deleting: #11 cheap pills", "Deleted 2 spam comments"},
		},
		{
			name:      "verbosity zero",
			params:    Params{Age: 14},
			wantCall:  "Delete",
			wantN:     5,
			wantLines: []string{"Deleted 5 spam comments"},
			noLines:   []string{"Deleting:"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{items: two, count: 5}
			c, out := newTestCommand(repo)

			n, err := c.DeleteSpam(context.Background(), tt.params)
			if err != nil {
				t.Fatalf("DeleteSpam: %v", err)
			}
			if n != tt.wantN {
				t.Errorf("n = %d, want %d", n, tt.wantN)
			}
			if len(repo.calls) != 1 || repo.calls[0] != tt.wantCall {
				t.Fatalf("calls = %v, want [%s]", repo.calls, tt.wantCall)
			}
			if want := Cutoff(fixedNow, tt.params.Age); !repo.cutoffs[0].Equal(want) {
				t.Errorf("cutoff = %v, want %v", repo.cutoffs[0], want)
			}
			for _, line := range tt.wantLines {
				if !strings.Contains(out.String(), line) {
					t.Errorf("output %q missing %q", out.String(), line)
				}
			}
			for _, line := range tt.noLines {
				if strings.Contains(out.String(), line) {
					t.Errorf("output %q should not contain %q", out.String(), line)
				}
			}
		})
	}
}

func TestDeleteSpamZeroStillPrintsTotal(t *testing.T) {
	c, out := newTestCommand(&fakeRepo{})
	if _, err := c.DeleteSpam(context.Background(), Params{Age: 14, Verbosity: 1}); err != nil {
		t.Fatalf("DeleteSpam: %v", err)
	}
	if got := out.String(); got != "Deleted 0 spam comments\n" {
		t.Errorf("output = %q", got)
	}
}

func TestDeleteSpamRejectsAge(t *testing.T) {
	tests := []struct {
		name string
		age  int
	}{
		{"negative", -1},
		{"above max", MaxAge + 1},
		{"max int", math.MaxInt},
		{"min int", math.MinInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, dry := range []bool{false, true} {
				repo := &fakeRepo{count: 5}
				c, out := newTestCommand(repo)
				_, err := c.DeleteSpam(context.Background(), Params{Age: tt.age, DryRun: dry, Verbosity: 2})
				if !errors.Is(err, apperrors.ErrInvalidInput) {
					t.Fatalf("dry=%v: err = %v, want ErrInvalidInput", dry, err)
				}
				if len(repo.calls) != 0 {
					t.Errorf("dry=%v: repository touched: %v", dry, repo.calls)
				}
				if out.Len() != 0 {
					t.Errorf("dry=%v: unexpected output %q", dry, out.String())
				}
			}
		})
	}
}

// TestDeleteSpamMaxAge 上限本身可用, cutoff 仍在过去。
func TestDeleteSpamMaxAge(t *testing.T) {
	if cut := Cutoff(fixedNow, MaxAge); !cut.Before(fixedNow) {
		t.Fatalf("Cutoff(now, MaxAge) = %v, want before %v", cut, fixedNow)
	}
	repo := &fakeRepo{count: 1}
	c, out := newTestCommand(repo)
	n, err := c.DeleteSpam(context.Background(), Params{Age: MaxAge, Verbosity: 1})
	if err != nil {
		t.Fatalf("DeleteSpam: %v", err)
	}
	if n != 1 || out.String() != "Deleted 1 spam comments\n" {
		t.Errorf("n = %d, output = %q", n, out.String())
	}
	if len(repo.cutoffs) != 1 || repo.cutoffs[0].Year() != fixedNow.Year()-100 {
		t.Errorf("cutoffs = %v", repo.cutoffs)
	}
}

func TestDeleteSpamPropagatesError(t *testing.T) {
	boom := errors.New("connection refused")
	c, out := newTestCommand(&fakeRepo{err: boom})
	_, err := c.DeleteSpam(context.Background(), Params{Age: 14, Verbosity: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if out.Len() != 0 {
		t.Errorf("no total should be printed on failure, got %q", out.String())
	}
}

func TestPrintEachTruncates(t *testing.T) {
	c, out := newTestCommand(&fakeRepo{})
	c.printEach("Deleting", []Comment{{ID: "1", Summary: strings.Repeat("x", 100)}})
	want := "Deleting: #1 " + strings.Repeat("x", summaryWidth) + "...\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestOpenNilSettings(t *testing.T) {
	_, _, err := Open(context.Background(), nil, &bytes.Buffer{})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
