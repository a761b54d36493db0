package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jakobo/eyeglass/pkg/sass"
)

// UserStage wraps the importer the host was configured with
type UserStage struct {
	importer sass.Importer
}

// NewUserStage wraps importer. A nil importer yields a nil Stage, which
// NewChain skips.
func NewUserStage(importer sass.Importer) Stage {
	if importer == nil {
		return nil
	}
	return &UserStage{importer: importer}
}

// Name implements Stage
func (u *UserStage) Name() string { return "user" }

// TryResolve implements Stage. Declining with sass.ErrNotHandled or a nil
// result hands the request on; any other error is terminal.
func (u *UserStage) TryResolve(ctx context.Context, req *sass.Request, trail *Trail) (*sass.Result, error) {
	res, err := u.importer.Import(ctx, req)
	switch {
	case errors.Is(err, sass.ErrNotHandled), err == nil && res == nil:
		trail.Note(fmt.Errorf("%w: custom importer declined %q", sass.ErrNotHandled, req.URI))
		return trail.Next(ctx)
	case err != nil:
		return nil, fmt.Errorf("custom importer: %w", err)
	}
	return res, nil
}
