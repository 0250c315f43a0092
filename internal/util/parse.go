package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/reelgraph/internal/errors"
)

// ParseInt parses a string to an integer, returning defaultValue if s is empty
func ParseInt(s string, defaultValue int) (int, error) {
	if s == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(s)
}

// QueryInt reads an integer query parameter. A malformed value is a
// validation error on that parameter; range checks belong to the core.
func QueryInt(c *gin.Context, name string, defaultValue int) (int, error) {
	v, err := ParseInt(c.Query(name), defaultValue)
	if err != nil {
		return 0, errors.ValidationError(name, name+" must be an integer")
	}
	return v, nil
}

// QueryPage reads offset and limit
func QueryPage(c *gin.Context, defaultLimit int) (offset, limit int, err error) {
	if offset, err = QueryInt(c, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = QueryInt(c, "limit", defaultLimit); err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}
