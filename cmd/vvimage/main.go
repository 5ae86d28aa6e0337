// Command vvimage estimates the visual vertical of a single still image and
// prints the histogram peaks and the result.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"visual-vertical/internal/config"
	"visual-vertical/internal/histogram"
	vvimage "visual-vertical/internal/image"
	"visual-vertical/internal/logging"
	"visual-vertical/internal/pipeline"
	"visual-vertical/internal/render"

	"gocv.io/x/gocv"
)

func main() {
	imagePath := flag.String("image", "", "Path to image (TIFF, PNG, or JPEG)")
	configPath := flag.String("config", "", "Path to YAML config file")
	usePeaks := flag.Bool("peaks", false, "Estimate from histogram peaks instead of raw bins")
	out := flag.String("o", "", "Write the composite debug view to this file")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: vvimage -image <path> [-config vv.yaml] [-peaks] [-o out.png]")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *usePeaks {
		cfg.Estimator.UsePeaks = true
	}

	still, err := vvimage.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %s image: %dx%d pixels\n", still.Format, still.Width(), still.Height())

	mat, err := still.Mat()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to convert image: %v\n", err)
		os.Exit(1)
	}
	defer mat.Close()

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	gp, ep := cfg.GradientParams(), cfg.EstimatorParams()
	fmt.Printf("\nEstimation parameters:\n")
	fmt.Printf("  Blur: kernel %d sigma %.1f\n", gp.BlurKernelSize, gp.BlurSigma)
	fmt.Printf("  Bins: %d (%.2f°/bin)\n", ep.NumBins, histogram.BinWidth(ep.NumBins))
	fmt.Printf("  Band: %.0f° - %.0f°\n", ep.MinAngle, ep.MaxAngle)
	fmt.Printf("  Top-K: %d  Window: %d  Alpha: %.2f  Peaks: %v\n",
		ep.TopK, cfg.Estimator.SmoothingWindow, ep.SmoothingFactor, cfg.Estimator.UsePeaks)

	proc, err := pipeline.FromConfig(cfg, *out != "", log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer proc.Close()

	res, err := proc.Process(mat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Estimation failed: %v\n", err)
		os.Exit(1)
	}
	defer res.Close()

	fmt.Printf("\nFound %d peaks in band:\n", len(res.Peaks))
	fmt.Printf("%-6s %10s %12s\n", "Bin", "Angle", "Weight")
	fmt.Println(strings.Repeat("-", 30))
	for _, p := range res.Peaks {
		fmt.Printf("%-6d %10.2f %12.5f\n", p.Bin, histogram.BinToDegrees(p.Bin, ep.NumBins), p.Value)
	}

	if _, updated := proc.Estimator().Previous(); !updated {
		fmt.Printf("\nNo gradient energy in band, holding seed angle\n")
	}
	fmt.Printf("\nVisual vertical: %.2f° (%.4f rad)\n", res.Result.Angle(), res.Result.AngleRad())
	fmt.Printf("Gravity vector:  (%.3f, %.3f) m/s²\n", res.Result.AccX(), res.Result.AccY())

	if *out == "" {
		return
	}
	composite, err := render.Compose(render.Panels{
		Frame:  mat,
		Field:  res.Field,
		Mask:   res.Mask,
		Hist:   res.Hist,
		Result: res.Result,
		Band:   render.Band{Min: ep.MinAngle, Max: ep.MaxAngle},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to compose: %v\n", err)
		os.Exit(1)
	}
	defer composite.Close()
	if !gocv.IMWrite(*out, composite) {
		fmt.Fprintf(os.Stderr, "Failed to write %s\n", *out)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *out)
}
