package logger

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"

	colorTime   = "\x1b[38;5;109m" // soft blue timestamps
	colorName   = "\x1b[38;5;108m" // muted green component names
	colorFg     = "\x1b[38;5;223m" // soft cream body text
	colorID     = "\x1b[38;5;175m" // muted purple for accessions/run IDs
	colorNumber = "\x1b[38;5;214m" // soft yellow for counts
	colorWarnFg = "\x1b[38;5;214m"
	colorWarnBg = "\x1b[48;5;58m"
	colorErrFg  = "\x1b[38;5;167m"
	colorErrBg  = "\x1b[48;5;88m"
)

// minimalEncoder implements a calm, compact console encoder.
// Format: "13:04:35  reconcile  PXD000123 resolved  12 raw files"
type minimalEncoder struct {
	zapcore.Encoder // Embed a base encoder for field serialization
	buf             *buffer.Buffer
}

func newMinimalEncoder() *minimalEncoder {
	// Base JSON encoder handles With()-attached fields internally
	baseEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	return &minimalEncoder{
		Encoder: baseEncoder,
		buf:     buffer.NewPool().Get(),
	}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{
		Encoder: enc.Encoder.Clone(),
		buf:     buffer.NewPool().Get(),
	}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	final := buffer.NewPool().Get()

	final.AppendString(colorTime)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level: only shown for WARN and above
	if ent.Level != zapcore.InfoLevel && ent.Level != zapcore.DebugLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorName)
		final.AppendString(ent.LoggerName)
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(colorFg)
	final.AppendString(ent.Message)
	final.AppendString(colorReset)

	if len(fields) > 0 {
		final.AppendString("  ")
		final.AppendString(renderFields(fields))
	}

	final.AppendString("\n")
	return final, nil
}

func levelColorString(level zapcore.Level) string {
	switch level {
	case zapcore.WarnLevel:
		return colorBold + colorWarnBg + colorWarnFg + "WARN" + colorReset
	case zapcore.ErrorLevel:
		return colorBold + colorErrBg + colorErrFg + "ERROR" + colorReset
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorBold + colorErrBg + colorErrFg + level.CapitalString() + colorReset
	default:
		return ""
	}
}

// fieldValue extracts a printable value from a zap field
func fieldValue(field zapcore.Field) string {
	switch field.Type {
	case zapcore.StringType:
		return field.String
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", field.Integer)
	case zapcore.Float64Type:
		return fmt.Sprintf("%g", math.Float64frombits(uint64(field.Integer)))
	case zapcore.Float32Type:
		return fmt.Sprintf("%g", math.Float32frombits(uint32(field.Integer)))
	case zapcore.DurationType:
		return time.Duration(field.Integer).String()
	case zapcore.BoolType:
		if field.Integer == 1 {
			return "true"
		}
		return "false"
	case zapcore.ErrorType:
		if err, ok := field.Interface.(error); ok {
			return err.Error()
		}
	}
	if field.Interface != nil {
		return fmt.Sprintf("%v", field.Interface)
	}
	return ""
}

// renderFields shows key=value pairs compactly, with accession-like
// identifiers and counts picked out in their own colors.
func renderFields(fields []zapcore.Field) string {
	var parts []string
	for _, field := range fields {
		val := fieldValue(field)
		if val == "" {
			continue
		}
		switch field.Key {
		case "accession", "run_id", "repository", "source":
			parts = append(parts, colorID+val+colorReset)
		case "count", "raw_files", "total", "succeeded", "failed", "attempt", "page":
			parts = append(parts, colorFg+field.Key+"="+colorReset+colorNumber+val+colorReset)
		case "error":
			parts = append(parts, colorErrFg+val+colorReset)
		default:
			parts = append(parts, colorFg+field.Key+"="+val+colorReset)
		}
	}
	return strings.Join(parts, " ")
}
