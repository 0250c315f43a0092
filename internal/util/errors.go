package util

import (
	stderrors "errors"

	"github.com/zfogg/reelgraph/internal/errors"
)

func asAPIError(err error, target **errors.APIError) bool {
	return stderrors.As(err, target)
}
