package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bomac1193/Issuance/internal/domain"
)

func parseAssetID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid asset id %q", domain.ErrAssetNotFound, arg)
	}
	return id, nil
}
