// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger creates a logger writing lines of the given format to out,
// filtering everything below the given level.
func newLogger(level, format string, out io.Writer) (*zap.Logger, error) {
	al := zap.NewAtomicLevel()
	switch level {
	case "debug":
		al.SetLevel(zap.DebugLevel)
	case "info":
		al.SetLevel(zap.InfoLevel)
	case "warn", "":
		al.SetLevel(zap.WarnLevel)
	case "error":
		al.SetLevel(zap.ErrorLevel)
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	ec := zap.NewDevelopmentEncoderConfig()
	var encoder zapcore.Encoder
	switch format {
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(ec)
	case "json":
		encoder = zapcore.NewJSONEncoder(ec)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), al)
	return zap.New(core), nil
}
