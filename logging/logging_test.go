package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestNewLoggerConfig(t *testing.T) {
	cfg := NewLoggerConfig()
	test.That(t, cfg.Encoding, test.ShouldEqual, "console")
	test.That(t, cfg.DisableStacktrace, test.ShouldBeTrue)
	test.That(t, cfg.Level.Level(), test.ShouldEqual, zapcore.InfoLevel)
}

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("built octree", "depth", 3)
	logger.Warn("lossy input")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("built octree").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterLevelExact(zapcore.WarnLevel).Len(), test.ShouldEqual, 1)
}

func TestLoggerLevels(t *testing.T) {
	test.That(t, NewLogger("occ").Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeFalse)
	test.That(t, NewDebugLogger("occ").Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeTrue)
}
