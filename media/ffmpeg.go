package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/rrifaldi/yuzu/utils"
)

// RecognitionSampleRate is the sample rate every speech model receives.
const RecognitionSampleRate = 16000

func (f *FFmpeg) transcodeArgs(filePath string) []string {
	return []string{
		"-nostdin",
		"-v", "error",
		"-i", filePath,
		"-vn",
		"-c:a", "flac",
		"-ar:a", strconv.Itoa(RecognitionSampleRate),
		"-ac:a", "1",
		"-f", "flac",
		"-",
	}
}

// TranscodeForRecognition decodes the input and re-encodes it as 16kHz mono
// FLAC, which both Workers AI and Google Speech accept, returning at most
// maxSize bytes.
func (f *FFmpeg) TranscodeForRecognition(ctx context.Context, filePath string, maxSize int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.ffmpegBinary, f.transcodeArgs(filePath)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}

	err = cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}

	output, err := utils.ReadAllLimit(stdout, maxSize)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, fmt.Errorf("reading output: %w", err)
	}

	err = cmd.Wait()
	if err != nil {
		return nil, fmt.Errorf("running ffmpeg: %w", err)
	}

	return output, nil
}
