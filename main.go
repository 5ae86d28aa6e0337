// Package main runs visual-vertical estimation on a video file or camera
// stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visual-vertical/internal/config"
	"visual-vertical/internal/logging"
	"visual-vertical/internal/pipeline"
	"visual-vertical/internal/render"
	"visual-vertical/internal/session"
	"visual-vertical/internal/version"
	"visual-vertical/internal/video"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const appTitle = "Visual Vertical"

func main() {
	configPath := flag.String("config", os.Getenv(config.EnvConfigPath), "Path to YAML config file")
	envFile := flag.String("env", ".env", "Path to dotenv file")
	input := flag.String("i", "", "Input video file (overrides io.input_file_path)")
	camera := flag.Bool("c", false, "Use camera input")
	cameraPort := flag.Int("cp", 0, "Camera port")
	scale := flag.Int("s", 0, "Downscale factor (overrides io.scale)")
	noDisplay := flag.Bool("no-display", false, "Disable the preview window")
	noSave := flag.Bool("no-save", false, "Do not write CSV, plot or manifest")
	noVideo := flag.Bool("no-video", false, "Do not write the result video")
	sqlite := flag.Bool("sqlite", false, "Also store results in a SQLite database")
	logLevel := flag.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
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
	cfg.ApplyEnv()

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if *input != "" {
		cfg.IO.InputFilePath = *input
		cfg.IO.UseCamera = false
	}
	if *camera {
		cfg.IO.UseCamera = true
	}
	if set["cp"] {
		cfg.IO.CameraPort = *cameraPort
	}
	if *scale > 0 {
		cfg.IO.Scale = *scale
	}
	if *noDisplay {
		cfg.IO.Display = false
	}
	if *noSave {
		cfg.IO.SaveResults = false
	}
	if *noVideo {
		cfg.IO.SaveVideo = false
	}
	if *sqlite {
		cfg.IO.SaveSQLite = true
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	log.Infof("Starting %s %s", appTitle, version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("run failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	src, err := openSource(cfg.IO)
	if err != nil {
		return err
	}
	defer src.Close()
	log.WithFields(logrus.Fields{"source": src.Name(), "fps": src.FPS()}).Info("video source opened")

	composing := cfg.IO.Display || cfg.IO.SaveVideo
	proc, err := pipeline.FromConfig(cfg, composing, log)
	if err != nil {
		return err
	}
	defer proc.Close()

	layout := session.NewLayout(cfg.IO.OutputDir, src.Name(), src.IsCamera(), time.Now())

	var rec *session.Recorder
	if cfg.IO.SaveResults {
		rec, err = session.NewRecorder(cfg, layout, src.Name(), src.IsCamera(), log)
		if err != nil {
			return err
		}
	}

	var writer *video.Writer
	if cfg.IO.SaveVideo {
		writer = video.NewWriter(layout.VideoPath(), src.FPS())
		defer func() {
			if err := writer.Close(); err != nil {
				log.WithError(err).Warn("failed to close video writer")
			}
		}()
	}

	var display *video.Display
	if cfg.IO.Display {
		display = video.NewDisplay()
		defer display.Close()
	}

	band := render.Band{Min: cfg.Estimator.MinAngle, Max: cfg.Estimator.MaxAngle}
	fps := pipeline.NewFPSCounter()
	frame := gocv.NewMat()
	defer frame.Close()

	for running := true; running; {
		if ctx.Err() != nil {
			log.Info("interrupted")
			break
		}

		ok, err := src.Read(&frame)
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if !ok {
			log.Info("end of stream")
			break
		}
		if frame.Empty() {
			continue
		}

		scaled := video.Downscale(frame, cfg.IO.Scale)
		res, err := proc.Process(scaled)
		if err != nil {
			scaled.Close()
			log.WithError(err).Warn("frame skipped")
			continue
		}
		rate := fps.Tick()
		if rec != nil {
			rec.Add(res.Result)
		}

		if composing {
			running = present(scaled, res, band, rate, writer, display, log)
		}

		res.Close()
		scaled.Close()
	}

	log.WithFields(logrus.Fields{
		"frames":  fps.Frames(),
		"avg_fps": fmt.Sprintf("%.1f", fps.Average()),
	}).Info("processing finished")

	if rec == nil {
		return nil
	}
	videoPath := ""
	if writer != nil {
		videoPath = writer.Path()
	}
	err = rec.Finish(videoPath, fps.Average())
	if errors.Is(err, session.ErrNoResults) {
		log.Warn("no frames processed, nothing saved")
		return nil
	}
	return err
}

func openSource(c config.IO) (*video.Capture, error) {
	if c.UseCamera {
		return video.OpenCamera(c.CameraPort)
	}
	return video.OpenFile(c.InputFilePath)
}

// present composes the debug view, writes and shows it. It returns false
// when the user asked to quit.
func present(frame gocv.Mat, res *pipeline.FrameResult, band render.Band, rate float64,
	writer *video.Writer, display *video.Display, log *logrus.Logger) bool {
	composite, err := render.Compose(render.Panels{
		Frame:  frame,
		Field:  res.Field,
		Mask:   res.Mask,
		Hist:   res.Hist,
		Result: res.Result,
		Band:   band,
		FPS:    rate,
	})
	if err != nil {
		log.WithError(err).Warn("compose failed")
		return true
	}
	defer composite.Close()

	if writer != nil {
		if err := writer.Write(composite); err != nil {
			log.WithError(err).Warn("failed to write video frame")
		}
	}
	if display != nil {
		return display.Show(composite)
	}
	return true
}
