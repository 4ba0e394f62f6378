package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/eligwz/spectrogram"

	"github.com/waveprint/waveprint/pkg/logger"
	"github.com/waveprint/waveprint/pkg/models"
	"github.com/waveprint/waveprint/pkg/waveprint"
	"github.com/waveprint/waveprint/pkg/waveprint/audio"
	"github.com/waveprint/waveprint/pkg/waveprint/codec"
	"github.com/waveprint/waveprint/pkg/waveprint/simhash"
)

// Global flags
var (
	dbPath    string
	algorithm int
)

func init() {
	flag.StringVar(&dbPath, "db", getEnvOrDefault("WAVEPRINT_DB_PATH", "waveprint.sqlite3"), "Path to the SQLite catalog file")
	flag.IntVar(&algorithm, "algorithm", int(models.AlgorithmDefault), "Fingerprint algorithm id (0-3)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func createService() (waveprint.Service, error) {
	return waveprint.NewService(
		waveprint.WithDBPath(dbPath),
		waveprint.WithAlgorithm(models.Algorithm(algorithm)),
	)
}

func main() {
	log := logger.GetLogger()

	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "fingerprint":
		handleFingerprint()
	case "decode":
		handleDecode()
	case "compare":
		handleCompare()
	case "add":
		handleAdd()
	case "match":
		handleMatch()
	case "list":
		handleList()
	case "delete":
		handleDelete()
	case "chromagram":
		handleChromagram()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
__        __                ____       _       _
\ \      / /_ ___   _____  |  _ \ _ __(_)_ __ | |_
 \ \ /\ / / _' \ \ / / _ \ | |_) | '__| | '_ \| __|
  \ V  V / (_| |\ V /  __/ |  __/| |  | | | | | |_
   \_/\_/ \__,_| \_/ \___| |_|   |_|  |_|_| |_|\__|

           Audio Fingerprint Dedup CLI
`
	fmt.Println(banner)
}

func printUsage() {
	fmt.Println(`Usage: waveprint <command> [flags]

Commands:
  fingerprint <file.wav>          Print the compressed fingerprint of a file
  decode <fingerprint>            Inspect an encoded fingerprint
  compare <a.wav> <b.wav>         Find matching segments between two files
  add <file.wav> --title <t>      Add a recording to the catalog
  match <file.wav>                Find catalog recordings overlapping a file
  list                            List catalogued recordings
  delete <id>                     Remove a recording from the catalog
  chromagram <file.wav> <out.png> Render a spectrogram image for inspection

Global flags:
  -db <path>          Catalog database path (default waveprint.sqlite3)
  -algorithm <0-3>    Fingerprint algorithm id`)
}

func fatalf(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}

func handleFingerprint() {
	if len(os.Args) < 3 {
		fatalf("Usage: waveprint fingerprint <file.wav>")
	}
	path := os.Args[2]

	svc, err := createService()
	if err != nil {
		fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	fp, err := svc.FingerprintFile(path)
	if err != nil {
		fatalf("Fingerprinting failed: %v", err)
	}

	encoded, err := codec.CompressToText(fp)
	if err != nil {
		fatalf("Encoding failed: %v", err)
	}

	rawSize := uint64(4 * len(fp.Hashes))
	fmt.Printf("Frames:     %s (%s raw)\n", humanize.Comma(int64(len(fp.Hashes))), humanize.Bytes(rawSize))
	fmt.Printf("Compressed: %s\n", humanize.Bytes(uint64(len(encoded))))
	fmt.Printf("SimHash:    %08x\n", simhash.Hash(fp))
	fmt.Printf("Fingerprint:\n%s\n", encoded)
}

func handleDecode() {
	if len(os.Args) < 3 {
		fatalf("Usage: waveprint decode <fingerprint>")
	}

	fp, err := codec.DecompressText(os.Args[2])
	if err != nil {
		fatalf("Decode failed: %v", err)
	}

	fmt.Printf("Algorithm: %d\n", fp.Algorithm)
	fmt.Printf("Frames:    %s\n", humanize.Comma(int64(len(fp.Hashes))))
	fmt.Printf("SimHash:   %08x\n", simhash.Hash(fp))
}

func handleCompare() {
	if len(os.Args) < 4 {
		fatalf("Usage: waveprint compare <a.wav> <b.wav>")
	}

	svc, err := createService()
	if err != nil {
		fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	segments, err := svc.CompareFiles(ctx, os.Args[2], os.Args[3])
	if err != nil {
		fatalf("Compare failed: %v", err)
	}
	if len(segments) == 0 {
		fmt.Println("No matching segments found.")
		return
	}

	hop := svc.HopDuration()
	fmt.Printf("%d matching segment(s):\n", len(segments))
	for i, seg := range segments {
		fmt.Printf("  #%d  A@%v  B@%v  length %v  similarity %d%%\n",
			i+1, seg.TimeA(hop).Round(time.Millisecond), seg.TimeB(hop).Round(time.Millisecond),
			seg.Duration(hop).Round(time.Millisecond), seg.Confidence())
	}
}

func handleAdd() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	title := addCmd.String("title", "", "Recording title")
	if len(os.Args) < 3 {
		fatalf("Usage: waveprint add <file.wav> --title <title>")
	}
	path := os.Args[2]
	addCmd.Parse(os.Args[3:])

	if *title == "" {
		*title = path
	}

	svc, err := createService()
	if err != nil {
		fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	id, err := svc.AddRecording(ctx, path, *title)
	if err != nil {
		fatalf("Add failed: %v", err)
	}
	fmt.Printf("Added recording %s\n", id)
}

func handleMatch() {
	if len(os.Args) < 3 {
		fatalf("Usage: waveprint match <file.wav>")
	}

	svc, err := createService()
	if err != nil {
		fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	results, err := svc.FindDuplicates(ctx, os.Args[2])
	if err != nil {
		fatalf("Match failed: %v", err)
	}
	if len(results) == 0 {
		fmt.Println("No duplicates found.")
		return
	}

	fmt.Printf("%d match(es):\n", len(results))
	for _, r := range results {
		fmt.Printf("  %s  %q  similarity %d%%  %s frames  offset %dms\n",
			r.RecordingID, r.Title, r.Confidence, humanize.Comma(int64(r.MatchedFrames)), r.BestOffsetMs)
	}
}

func handleList() {
	svc, err := createService()
	if err != nil {
		fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	recs, err := svc.ListRecordings()
	if err != nil {
		fatalf("List failed: %v", err)
	}
	if len(recs) == 0 {
		fmt.Println("Catalog is empty.")
		return
	}

	for _, r := range recs {
		fmt.Printf("  %s  %q  %s  alg %d  fp %s\n",
			r.ID, r.Title,
			(time.Duration(r.DurationMs) * time.Millisecond).Round(time.Second),
			r.Algorithm, humanize.Bytes(uint64(len(r.Fingerprint))))
	}
}

func handleDelete() {
	if len(os.Args) < 3 {
		fatalf("Usage: waveprint delete <id>")
	}

	svc, err := createService()
	if err != nil {
		fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	if err := svc.DeleteRecording(os.Args[2]); err != nil {
		fatalf("Delete failed: %v", err)
	}
	fmt.Println("Deleted.")
}

// handleChromagram renders a spectrogram PNG of a WAV file, useful when
// debugging why two recordings do or do not match.
func handleChromagram() {
	if len(os.Args) < 4 {
		fatalf("Usage: waveprint chromagram <file.wav> <out.png>")
	}
	inPath, outPath := os.Args[2], os.Args[3]

	clip, err := audio.ReadFile(inPath)
	if err != nil {
		fatalf("Reading audio failed: %v", err)
	}

	width, height := 2048, 512
	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	// Hamming window, FFT, magnitude, linear scale.
	spectrogram.Drawfft(img, clip.Samples, uint32(clip.SampleRate), uint32(height), false, false, true, false)

	if err := spectrogram.SavePng(img, outPath); err != nil {
		fatalf("Saving PNG failed: %v", err)
	}
	fmt.Printf("Saved spectrogram to %s\n", outPath)
}
