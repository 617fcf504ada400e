//go:build !linux

package kms

import "log/slog"

func openLinuxAdapter(logger *slog.Logger, path string) (Adapter, error) {
	return nil, ErrUnsupportedPlatform
}
