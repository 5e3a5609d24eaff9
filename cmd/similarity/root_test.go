package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"similarity-checker/internal/config"
	"similarity-checker/internal/similarity"
)

func newTestCLI(input string, cfg config.Config, m similarity.Comparer) (*cli, *bytes.Buffer, *int) {
	var out bytes.Buffer
	builds := 0
	c := &cli{
		in:         strings.NewReader(input),
		out:        &out,
		errOut:     &bytes.Buffer{},
		loadConfig: func() (config.Config, error) { return cfg, nil },
		buildComparer: func(config.Config, bool, *slog.Logger) (similarity.Comparer, func(), error) {
			builds++
			return m, func() {}, nil
		},
	}
	return c, &out, &builds
}

func TestRootCommand(t *testing.T) {
	withKey := config.Config{OpenAIKey: "sk-test", EndpointStyle: "chat"}

	tests := []struct {
		name       string
		input      string
		cfg        config.Config
		args       []string
		setup      func(*similarity.MockComparer)
		wantOutput []string
		noBuild    bool
	}{
		{
			name:  "similar sentences",
			input: "The cat sat on the mat\nA cat was sitting on a mat\n",
			cfg:   withKey,
			setup: func(m *similarity.MockComparer) {
				m.On("Compare", mock.Anything, "The cat sat on the mat", "A cat was sitting on a mat").
					Return(similarity.Score(4), nil).Once()
			},
			wantOutput: []string{"Text Similarity Checker", "Enter the first text: ", "Enter the second text: ", "Similarity Score: 4\n"},
		},
		{
			name:  "identical input without trailing newline",
			input: "hello\r\nhello",
			cfg:   withKey,
			setup: func(m *similarity.MockComparer) {
				m.On("Compare", mock.Anything, "hello", "hello").Return(similarity.Score(5), nil).Once()
			},
			wantOutput: []string{"Similarity Score: 5\n"},
		},
		{
			name: "texts from flags",
			cfg:  withKey,
			args: []string{"--text1", "a", "--text2", "b"},
			setup: func(m *similarity.MockComparer) {
				m.On("Compare", mock.Anything, "a", "b").Return(similarity.Score(2.5), nil).Once()
			},
			wantOutput: []string{"Similarity Score: 2.5\n"},
		},
		{
			name:  "unparseable reply",
			input: "a\nb\n",
			cfg:   withKey,
			setup: func(m *similarity.MockComparer) {
				m.On("Compare", mock.Anything, "a", "b").
					Return(similarity.FailureScore, similarity.ErrParse).Once()
			},
			wantOutput: []string{"Error: Unable to calculate similarity."},
		},
		{
			name:  "out of range score from comparer",
			input: "a\nb\n",
			cfg:   withKey,
			setup: func(m *similarity.MockComparer) {
				m.On("Compare", mock.Anything, "a", "b").Return(similarity.Score(6), nil).Once()
			},
			wantOutput: []string{"Error: Unable to calculate similarity.", "outside"},
		},
		{
			name:       "missing key stops before any comparison",
			input:      "a\nb\n",
			cfg:        config.Config{},
			wantOutput: []string{missingKeyMessage},
			noBuild:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(similarity.MockComparer)
			if tt.setup != nil {
				tt.setup(m)
			}
			c, out, builds := newTestCLI(tt.input, tt.cfg, m)

			cmd := newRootCommand(c)
			cmd.SetArgs(append([]string{}, tt.args...))
			require.NoError(t, cmd.Execute())

			for _, want := range tt.wantOutput {
				assert.Contains(t, out.String(), want)
			}
			if tt.noBuild {
				assert.Equal(t, 0, *builds)
				assert.NotContains(t, out.String(), "Enter the first text")
			}
			m.AssertExpectations(t)
		})
	}
}

func TestRootCommandFlagsOverrideConfig(t *testing.T) {
	var got config.Config
	c := &cli{
		in:         strings.NewReader("x\ny\n"),
		out:        &bytes.Buffer{},
		errOut:     &bytes.Buffer{},
		loadConfig: func() (config.Config, error) { return config.Config{OpenAIKey: "k", EndpointStyle: "chat"}, nil },
	}
	m := new(similarity.MockComparer)
	m.On("Compare", mock.Anything, "x", "y").Return(similarity.Score(3), nil).Once()
	c.buildComparer = func(cfg config.Config, remote bool, _ *slog.Logger) (similarity.Comparer, func(), error) {
		got = cfg
		return m, func() {}, nil
	}

	cmd := newRootCommand(c)
	cmd.SetArgs([]string{"--style", "legacy", "--normalize", "--model", "davinci-002"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "legacy", got.EndpointStyle)
	assert.True(t, got.NormalizeText)
	assert.Equal(t, "davinci-002", got.LegacyModel)
	assert.Equal(t, "warn", got.LogLevel)
}

func TestRootCommandRemoteSkipsKeyCheck(t *testing.T) {
	m := new(similarity.MockComparer)
	m.On("Compare", mock.Anything, "a", "b").Return(similarity.Score(1), nil).Once()
	c, out, builds := newTestCLI("a\nb\n", config.Config{}, m)

	cmd := newRootCommand(c)
	cmd.SetArgs([]string{"--remote"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, 1, *builds)
	assert.Contains(t, out.String(), "Similarity Score: 1\n")
}

func TestRootCommandBuildFailure(t *testing.T) {
	c, out, _ := newTestCLI("", config.Config{OpenAIKey: "k"}, nil)
	c.buildComparer = func(config.Config, bool, *slog.Logger) (similarity.Comparer, func(), error) {
		return nil, nil, errors.New("invalid CACHE_PROVIDER: memcached")
	}

	cmd := newRootCommand(c)
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
	assert.Contains(t, out.String(), "invalid CACHE_PROVIDER")
}

type panicComparer struct{}

func (panicComparer) Compare(_ context.Context, _, _ string) (similarity.Score, error) {
	panic("boom")
}

func TestRootCommandRecoversPanic(t *testing.T) {
	c, out, _ := newTestCLI("a\nb\n", config.Config{OpenAIKey: "k"}, panicComparer{})

	cmd := newRootCommand(c)
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
	assert.Contains(t, out.String(), "Error: an unexpected error occurred.")
}
