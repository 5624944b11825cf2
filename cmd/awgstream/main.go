// Command awgstream builds PDW files, conditions waveforms, and drives
// Keysight signal generators over raw-socket SCPI.
package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/jdekker/awgstream/internal/discovery"
	"github.com/jdekker/awgstream/internal/instrument"
	"github.com/jdekker/awgstream/internal/scpi"
	"github.com/jdekker/awgstream/pdw"
	"github.com/jdekker/awgstream/profile"
)

var cli struct {
	Verbose bool   `help:"Prints debug output"`
	Config  string `help:"Path to config file" type:"path"`

	Discover struct {
		Timeout int `help:"Browse duration in seconds" default:"3"`
	} `cmd:"" help:"List instruments advertising a raw SCPI socket via mDNS"`

	Models struct {
	} `cmd:"" help:"List the known device profiles"`

	BuildPdw struct {
		Format string `help:"PDW stream format (analog, vector)" default:"analog"`
		In     string `arg:"" help:"Pulse definition CSV" type:"existingfile"`
		Out    string `arg:"" help:"Output PDW file"`
	} `cmd:"" help:"Build a binary PDW file from a pulse definition CSV"`

	Inspect struct {
		File string `arg:"" help:"PDW file to inspect" type:"existingfile"`
	} `cmd:"" help:"Print the structure of a PDW file"`

	DownloadWfm struct {
		Address string `help:"Instrument host:port" required:""`
		Model   string `help:"Device profile name" required:""`
		Channel int    `help:"Target channel" default:"1"`
		Name    string `help:"Segment name" default:"wfm"`
		Play    bool   `help:"Start playback after download"`
		File    string `arg:"" help:"Waveform samples, one per line" type:"existingfile"`
	} `cmd:"" help:"Condition a waveform and download it to an AWG segment"`

	Stream struct {
		Address string `help:"Instrument host:port" required:""`
		Format  string `help:"PDW stream format (analog, vector)" default:"analog"`
		Name    string `help:"PDW file name on the instrument" default:"pdw"`
		Play    bool   `help:"Trigger streaming playback after download"`
		File    string `arg:"" help:"Built PDW file" type:"existingfile"`
	} `cmd:"" help:"Download a PDW file to a UXG and optionally play it"`
}

func configCandidates() []string {
	paths := []string{"/etc/awgstream/config.hcl"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "awgstream", "config.hcl"))
	}
	return append(paths, "./config.hcl")
}

func configPath() string {
	if cli.Config != "" {
		return cli.Config
	}
	for _, path := range configCandidates() {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			log.Debugf("Found config file: %s", path)
			return path
		}
	}
	return ""
}

func profiles() profile.Set {
	path := configPath()
	if path == "" {
		return profile.Builtin()
	}
	set, err := profile.Load(path)
	if err != nil {
		log.Fatalf("Could not load profiles from %s: %v", path, err)
	}
	return set
}

func connect(addr string) *scpi.Instrument {
	i := scpi.New(addr)
	if err := i.Connect(); err != nil {
		log.Fatalf("Could not connect to %s: %v", addr, err)
	}
	id, err := i.ID()
	if err != nil {
		log.Fatalf("Identification query failed: %v", err)
	}
	log.Infof("Connected: %s", id)
	return i
}

func main() {
	flags := kong.Parse(&cli)
	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	switch flags.Command() {
	case "discover":
		runDiscover()
	case "models":
		runModels()
	case "build-pdw <in> <out>":
		runBuildPdw()
	case "inspect <file>":
		runInspect()
	case "download-wfm <file>":
		runDownloadWfm()
	case "stream <file>":
		runStream()
	default:
		log.Fatalf("Command not recognized: %s", flags.Command())
	}
}

func runDiscover() {
	timeout := time.Duration(cli.Discover.Timeout) * time.Second
	hosts, err := discovery.Browse(context.Background(), timeout)
	if err != nil {
		log.Fatalf("Discovery failed: %v", err)
	}
	if len(hosts) == 0 {
		log.Info("No instruments found")
		return
	}
	for _, h := range hosts {
		fmt.Printf("%-40s %s\n", h.Instance, h.Addr())
	}
}

func runModels() {
	set := profiles()
	for _, model := range set.Models() {
		p := set[model]
		fmt.Printf("%-12s granularity=%-4d minLength=%-5d sampleWidth=%d\n",
			model, p.Granularity, p.MinLength, p.SampleWidth)
	}
}

func runBuildPdw() {
	stream, err := streamType(cli.BuildPdw.Format)
	if err != nil {
		log.Fatalf("%v", err)
	}

	in, err := os.Open(cli.BuildPdw.In)
	if err != nil {
		log.Fatalf("Could not open %s: %v", cli.BuildPdw.In, err)
	}
	defer in.Close()

	builder := pdw.NewFileBuilder(stream)
	if err := addPulsesFromCSV(builder, stream, in); err != nil {
		log.Fatalf("Could not parse %s: %v", cli.BuildPdw.In, err)
	}

	file, err := builder.Build()
	if err != nil {
		log.Fatalf("Could not build PDW file: %v", err)
	}
	if err := os.WriteFile(cli.BuildPdw.Out, file, 0o644); err != nil {
		log.Fatalf("Could not write %s: %v", cli.BuildPdw.Out, err)
	}
	log.Infof("Wrote %d pulses (%d bytes) to %s", builder.Count(), len(file), cli.BuildPdw.Out)
}

func streamType(format string) (pdw.StreamType, error) {
	switch strings.ToLower(format) {
	case "analog":
		return pdw.StreamAnalog, nil
	case "vector":
		return pdw.StreamVector, nil
	default:
		return 0, fmt.Errorf("unknown PDW format %q, use analog or vector", format)
	}
}

// addPulsesFromCSV reads pulse definitions with a header row naming the
// fields. Unknown columns are an error; missing columns default to zero.
func addPulsesFromCSV(builder *pdw.FileBuilder, stream pdw.StreamType, in *os.File) error {
	r := csv.NewReader(in)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("header row: %w", err)
	}
	cols := make(map[string]int, len(header))
	for n, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = n
	}
	for name := range cols {
		if !knownColumn(name) {
			return fmt.Errorf("unknown column %q", name)
		}
	}

	for row := 1; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}

		get := func(name string) float64 {
			n, ok := cols[name]
			if !ok || n >= len(record) || record[n] == "" {
				return 0
			}
			v, perr := strconv.ParseFloat(record[n], 64)
			if perr != nil && err == nil {
				err = fmt.Errorf("row %d, column %s: %w", row, name, perr)
			}
			return v
		}

		var pulse pdw.PDW
		if stream == pdw.StreamAnalog {
			pulse = pdw.AnalogPDW{
				Operation: pdw.Operation(get("operation")),
				Freq:      get("frequency"),
				Phase:     get("phase"),
				StartTime: get("time"),
				Width:     get("width"),
				Power:     get("power"),
				Markers:   uint16(get("markers")),
				PulseMode: uint8(get("pulsemode")),
				ChirpRate: get("chirprate"),
			}
		} else {
			pulse = pdw.VectorPDW{
				Operation: pdw.Operation(get("operation")),
				Freq:      get("frequency"),
				Phase:     get("phase"),
				StartTime: get("time"),
				Width:     get("width"),
				MaxPower:  get("maxpower"),
				Power:     get("power"),
				Markers:   uint16(get("markers")),
				WIndex:    uint16(get("windex")),
			}
		}
		if err != nil {
			return err
		}
		if err := builder.Add(pulse); err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
	}
	return nil
}

func knownColumn(name string) bool {
	switch name {
	case "operation", "frequency", "phase", "time", "width", "power",
		"markers", "pulsemode", "chirprate", "maxpower", "windex":
		return true
	}
	return false
}

func runInspect() {
	file, err := os.ReadFile(cli.Inspect.File)
	if err != nil {
		log.Fatalf("Could not read %s: %v", cli.Inspect.File, err)
	}
	if len(file) < 48 || string(file[0:4]) != "STRM" {
		log.Fatalf("%s is not a PDW file", cli.Inspect.File)
	}

	version := binary.LittleEndian.Uint32(file[4:8])
	blockCount := int(binary.LittleEndian.Uint32(file[8:12]) >> 1)
	stream := pdw.StreamType(binary.LittleEndian.Uint32(file[40:44]))

	recordStart := blockCount * 4096
	recordSize := 4 * pdw.AnalogWords
	name := "analog"
	if stream == pdw.StreamVector {
		recordSize = 4 * pdw.VectorWords
		name = "vector"
	}

	fmt.Printf("version:       %d\n", version)
	fmt.Printf("stream type:   %s (%d)\n", name, stream)
	fmt.Printf("record offset: %d\n", recordStart)
	if len(file) >= recordStart+24 {
		fmt.Printf("records:       %d\n", (len(file)-recordStart-24)/recordSize)
	}
}

func runDownloadWfm() {
	set := profiles()
	p, err := set.Lookup(cli.DownloadWfm.Model)
	if err != nil {
		log.Fatalf("%v", err)
	}

	samples, err := readSamples(cli.DownloadWfm.File)
	if err != nil {
		log.Fatalf("Could not read samples: %v", err)
	}

	session := connect(cli.DownloadWfm.Address)
	defer session.Close()

	awg := instrument.NewAWG(session, p)
	segment, err := awg.DownloadWfm(cli.DownloadWfm.Channel, cli.DownloadWfm.Name, samples)
	if err != nil {
		log.Fatalf("Download failed: %v", err)
	}
	log.Infof("Downloaded %d samples into segment %d", len(samples), segment)

	if cli.DownloadWfm.Play {
		if err := awg.Play(cli.DownloadWfm.Channel, segment); err != nil {
			log.Fatalf("Playback failed: %v", err)
		}
		log.Info("Playback started")
	}
}

// readSamples parses one normalized sample per line, skipping blanks and
// '#' comments.
func readSamples(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var samples []float64
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, v)
	}
	return samples, scanner.Err()
}

func runStream() {
	file, err := os.ReadFile(cli.Stream.File)
	if err != nil {
		log.Fatalf("Could not read %s: %v", cli.Stream.File, err)
	}

	session := connect(cli.Stream.Address)
	defer session.Close()

	switch strings.ToLower(cli.Stream.Format) {
	case "analog":
		uxg := instrument.NewAnalogUXG(session)
		if err := uxg.DownloadPDWFile(cli.Stream.Name, file); err != nil {
			log.Fatalf("Download failed: %v", err)
		}
		log.Infof("Downloaded %d bytes as %s", len(file), cli.Stream.Name)
		if cli.Stream.Play {
			if err := uxg.StreamPlay(cli.Stream.Name); err != nil {
				log.Fatalf("Stream playback failed: %v", err)
			}
			log.Info("Streaming started")
		}
	case "vector":
		set := profiles()
		p, err := set.Lookup("vectoruxg")
		if err != nil {
			log.Fatalf("%v", err)
		}
		uxg := instrument.NewVectorUXG(session, p)
		if err := uxg.DownloadPDWFile(cli.Stream.Name, file); err != nil {
			log.Fatalf("Download failed: %v", err)
		}
		log.Infof("Downloaded %d bytes as %s", len(file), cli.Stream.Name)
		if cli.Stream.Play {
			if err := uxg.StreamPlay(cli.Stream.Name, ""); err != nil {
				log.Fatalf("Stream playback failed: %v", err)
			}
			log.Info("Streaming started")
		}
	default:
		log.Fatalf("Unknown PDW format %q, use analog or vector", cli.Stream.Format)
	}
}
