package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeolyus/brcsections/internal/config"
)

const (
	sampleInputDir  = "./test/samples"
	sampleInputExt  = ".txt"
	sampleOutputExt = ".out"
)

func TestEval(t *testing.T) {
	inputFiles, err := findFiles(sampleInputDir, sampleInputExt)
	require.NoError(t, err, "could not get input files")
	require.NotEmpty(t, inputFiles)

	for _, file := range inputFiles {
		expected, err := readFile(file + sampleOutputExt)
		require.NoError(t, err, "could not read output file")

		for _, mode := range []string{config.ModeMmap, config.ModePread} {
			for _, jobs := range []int{1, 2, 7, 64} {
				name := fmt.Sprintf("%s/%s/jobs=%d", filepath.Base(file), mode, jobs)
				t.Run(name, func(t *testing.T) {
					cfg := config.Default()
					cfg.Workers = jobs
					cfg.Mode = mode

					var actual bytes.Buffer
					_, err := eval(file+sampleInputExt, cfg, &actual)
					require.NoError(t, err, "could not evaluate input")
					assert.Equal(t, expected, actual.String())
				})
			}
		}
	}
}

func TestEvalMissingFile(t *testing.T) {
	var out bytes.Buffer
	_, err := eval(filepath.Join(t.TempDir(), "missing.txt"), config.Default(), &out)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, out.String())
}

func readFile(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("error reading file: %w", err)
	}
	return string(content), nil
}

func findFiles(dir string, ext string) ([]string, error) {
	filePaths := []string{}
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading directory: %w", err)
	}
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == ext {
			f := filepath.Join(dir, file.Name())
			filePaths = append(filePaths, f[:len(f)-len(ext)])
		}
	}
	return filePaths, nil
}
