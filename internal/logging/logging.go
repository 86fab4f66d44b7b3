// Package logging builds the zap logger used by shopctl commands.
package logging

import (
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	// Verbose enables debug output, including request and response bodies
	Verbose bool
	// NoColor disables colored level names
	NoColor bool
}

// New returns a console logger writing to w. Without Verbose only warnings
// and errors are written.
func New(w io.Writer, opts Options) *zap.Logger {
	level := zapcore.WarnLevel
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = levelEncoder(opts.NoColor || color.NoColor)
	encCfg.CallerKey = ""
	encCfg.StacktraceKey = ""

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func levelEncoder(noColor bool) zapcore.LevelEncoder {
	if noColor {
		return zapcore.CapitalLevelEncoder
	}
	return func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(levelColor(l).Sprint(l.CapitalString()))
	}
}

func levelColor(l zapcore.Level) *color.Color {
	switch l {
	case zapcore.DebugLevel:
		return color.New(color.FgCyan)
	case zapcore.InfoLevel:
		return color.New(color.FgGreen)
	case zapcore.WarnLevel:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}
