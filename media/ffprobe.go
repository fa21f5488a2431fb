package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

var ErrFFprobeDurationInvalid = fmt.Errorf("got no packets from ffprobe, likely a bad file")

type Packet struct {
	CodecType          string  `json:"codec_type"`
	StreamIndex        int     `json:"stream_index"`
	Pts                int     `json:"pts"`
	PtsTime            string  `json:"pts_time"`
	Dts                int     `json:"dts"`
	DtsTime            string  `json:"dts_time"`
	Duration           int     `json:"duration"`
	DurationTime       string  `json:"duration_time"`
	Size               string  `json:"size"`
	Pos                string  `json:"pos"`
	Flags              string  `json:"flags"`
	ParsedPtsTime      float64 `json:"-"`
	ParsedDtsTime      float64 `json:"-"`
	ParsedDurationTime float64 `json:"-"`
}

// parseTimes fills the Parsed* fields. ffprobe reports "N/A" for streams
// without timestamps, which is treated as zero.
func (p *Packet) parseTimes() error {
	var err error
	p.ParsedDtsTime, err = parseProbeTime(p.DtsTime)
	if err != nil {
		return fmt.Errorf("parsing DtsTime: %w", err)
	}
	p.ParsedPtsTime, err = parseProbeTime(p.PtsTime)
	if err != nil {
		return fmt.Errorf("parsing PtsTime: %w", err)
	}
	p.ParsedDurationTime, err = parseProbeTime(p.DurationTime)
	if err != nil {
		return fmt.Errorf("parsing DurationTime: %w", err)
	}
	return nil
}

func parseProbeTime(value string) (float64, error) {
	if value == "" || value == "N/A" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}

type FFprobePacketsOutput struct {
	Packets []Packet `json:"packets"`
}

func (f *FFmpeg) ffprobeGetPacketsFromFile(ctx context.Context, filePath string) ([]Packet, error) {
	cmd := exec.CommandContext(ctx,
		f.ffprobeBinary,
		"-i", filePath,
		"-v", "error",
		"-print_format", "json",
		"-select_streams", "a:0",
		"-show_packets",
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running ffprobe: %w", err)
	}

	return parsePackets(output)
}

func parsePackets(output []byte) ([]Packet, error) {
	var response FFprobePacketsOutput
	err := json.Unmarshal(output, &response)
	if err != nil {
		return nil, fmt.Errorf("parsing ffprobe json response: %w", err)
	}

	for i := range response.Packets {
		err = response.Packets[i].parseTimes()
		if err != nil {
			return nil, err
		}
	}

	return response.Packets, nil
}

// FFprobeDurationFromFile gets the duration of the input file using ffprobe
//
// Parses packet metadata to determine length: `max pts time + duration time`.
// Returns ErrFFprobeDurationInvalid if no packets.
//
// This uses packet metadata because some containers don't really include duration
// metadata (like the MediaRecorder API's output), and it's more accurate to
// what is processed by the model.
func (f *FFmpeg) FFprobeDurationFromFile(ctx context.Context, filePath string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.commandTimeout)
	defer cancel()

	packets, err := f.ffprobeGetPacketsFromFile(ctx, filePath)
	if err != nil {
		return 0, fmt.Errorf("getting packets: %w", err)
	}

	return durationFromPackets(packets)
}

// durationFromPackets is `max pts time + duration time` of the last packet.
func durationFromPackets(packets []Packet) (float64, error) {
	if len(packets) == 0 {
		return 0, ErrFFprobeDurationInvalid
	}

	maxPacket := packets[0]
	for _, packet := range packets[1:] {
		if packet.ParsedPtsTime > maxPacket.ParsedPtsTime {
			maxPacket = packet
		}
	}

	return maxPacket.ParsedPtsTime + maxPacket.ParsedDurationTime, nil
}
