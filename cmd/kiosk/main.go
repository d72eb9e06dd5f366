package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/fragranza-olio/ojt-backend/internal/kiosk"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/geo"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/presence"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/presence/opencv"
)

const help = `commands:
  status            show today's attendance
  in | out          clock in / clock out (takes a photo)
  break | resume    start / end the break
  late <reason>     request late permission for today
  submit <summary>  submit this week's timesheet
  dismiss           clear the last message
  quit`

func main() {
	configPath := flag.String("config", "", "path to kiosk.yaml")
	flag.Parse()

	cfg, err := kiosk.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	logger, err := kiosk.NewLogger(cfg)
	if err != nil {
		log.Fatal("Error building logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := kiosk.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	account, err := client.Login(ctx, cfg.Account.Email, cfg.Account.Password)
	if err != nil {
		logger.Fatal("login failed", zap.Error(err))
	}
	logger.Info("signed in", zap.String("user_id", account.UserID), zap.String("role", account.Role))

	model, err := opencv.LoadFaceModel(cfg.Model.Prototxt, cfg.Model.Weights)
	if err != nil {
		logger.Fatal("face model unavailable", zap.Error(err))
	}
	defer model.Close()

	var resolver *geo.Resolver
	if cfg.Location.Enabled {
		locator := geo.StaticLocator{Coordinates: geo.Coordinates{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
		}}
		resolver = geo.NewResolver(locator, geo.NewNominatim(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent)).
			WithTimeout(cfg.Location.Timeout)
	}

	workflow := kiosk.NewWorkflow(client, kiosk.WithWorkflowLogger(logger.Named("workflow")))
	station := kiosk.NewStation(workflow,
		func() (presence.FrameSource, error) { return opencv.OpenCamera(cfg.Camera.Device) },
		presence.NewDetector(model),
		resolver,
		kiosk.WithCaptureTimeout(cfg.Camera.CaptureTimeout),
		kiosk.WithStationLogger(logger.Named("station")),
		kiosk.WithSessionOptions(
			presence.WithInterval(cfg.Camera.Interval),
			presence.WithSessionLogger(logger.Named("presence")),
			presence.WithUpdates(func(u presence.Update) {
				if u.Detected {
					fmt.Printf("\rface detected, confidence %3d%%  ", u.Confidence)
				} else {
					fmt.Print("\rlooking for a face...          ")
				}
			}),
		),
	)

	if _, err := workflow.Refresh(ctx); err != nil {
		logger.Warn("initial status unavailable", zap.Error(err))
	}
	printStatus(workflow)
	fmt.Println(help)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		fmt.Print("> ")
		var line string
		select {
		case <-ctx.Done():
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(l)
		}

		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "":
			continue
		case "quit", "exit":
			return
		case "status":
			if _, err := workflow.Refresh(ctx); err != nil {
				fmt.Println("could not load status:", err)
			}
			printStatus(workflow)
			continue
		case "in":
			err = station.ClockIn(ctx)
			fmt.Println()
		case "out":
			err = station.ClockOut(ctx)
			fmt.Println()
		case "break":
			err = workflow.StartBreak(ctx)
		case "resume":
			err = workflow.EndBreak(ctx)
		case "late":
			err = workflow.RequestLatePermission(ctx, arg)
		case "submit":
			err = workflow.SubmitTimesheet(ctx, "", arg)
		case "dismiss":
			workflow.Dismiss()
			continue
		default:
			fmt.Println(help)
			continue
		}

		if errors.Is(err, kiosk.ErrActionInFlight) {
			fmt.Println("please wait, the previous action is still running")
			continue
		}
		printNotice(workflow)
		printStatus(workflow)
	}
}

func printNotice(w *kiosk.Workflow) {
	n := w.Notice()
	if n == nil {
		return
	}
	switch {
	case n.CanRequestPermission():
		fmt.Printf("! %s\n  use: late <reason>\n", n.Message)
	case n.RequiresPermission:
		fmt.Printf("! %s (request status: %s)\n", n.Message, n.ExistingStatus)
	case n.Kind == kiosk.NoticeError:
		fmt.Printf("! %s\n", n.Message)
	default:
		fmt.Printf("✓ %s\n", n.Message)
	}
}

func printStatus(w *kiosk.Workflow) {
	status, ok := w.Status()
	if !ok {
		fmt.Println("status: unknown (type 'status' to reload)")
		return
	}
	fmt.Printf("%s  state: %s", status.Date, status.State)
	if r := status.Record; r != nil {
		fmt.Printf("  work: %.2fh  penalty: %.2fh  overtime: %.2fh", r.WorkHours, r.PenaltyHours, r.OvertimeHours)
	}
	if status.RequiresPermission {
		fmt.Print("  (late permission required)")
	}
	fmt.Println()
}
