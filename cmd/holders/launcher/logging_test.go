package launcher

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggerLevels(t *testing.T) {
	for verbosity, want := range map[int]logrus.Level{
		-1: logrus.FatalLevel,
		0:  logrus.FatalLevel,
		1:  logrus.ErrorLevel,
		3:  logrus.InfoLevel,
		5:  logrus.TraceLevel,
		9:  logrus.TraceLevel,
	} {
		log, err := SetupLogger(LoggingConfig{Verbosity: verbosity}, &bytes.Buffer{})
		require.NoError(t, err)
		require.Equal(t, want, log.GetLevel(), "verbosity %d", verbosity)
	}
}

func TestSetupLoggerJSON(t *testing.T) {
	require := require.New(t)
	var buf bytes.Buffer

	log, err := SetupLogger(LoggingConfig{Verbosity: 3, Format: "json"}, &buf)
	require.NoError(err)
	log.WithField("block", 10).Info("Holder rewards cycle")

	var entry map[string]interface{}
	require.NoError(json.Unmarshal(buf.Bytes(), &entry))
	require.Equal("Holder rewards cycle", entry["msg"])
	require.Equal(float64(10), entry["block"])
}

func TestSetupLoggerErrors(t *testing.T) {
	_, err := SetupLogger(LoggingConfig{Format: "xml"}, &bytes.Buffer{})
	require.Error(t, err)

	_, err = SetupLogger(LoggingConfig{Format: "text", SentryDSN: "not a dsn"}, &bytes.Buffer{})
	require.Error(t, err)
}
