// h324m_loopback поднимает RTP ногу шлюза и замыкает ее на сессию
// H.324M внутри процесса: медиа проходит пакетизацию, AL2 и обратную
// депакетизацию и возвращается удаленной стороне.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pion/sdp/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/arzzra/h324m/pkg/al2"
	"github.com/arzzra/h324m/pkg/gateway"
)

func main() {
	app := &cli.App{
		Name:  "h324m_loopback",
		Usage: "RTP шлюз H.324M с сессией-петлей",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Value: "0.0.0.0:5004",
				Usage: "адрес RTP ноги",
			},
			&cli.StringFlag{
				Name:  "remote",
				Usage: "адрес удаленной стороны (по умолчанию - источник первого пакета)",
			},
			&cli.StringFlag{
				Name:  "metrics",
				Value: ":9090",
				Usage: "адрес HTTP сервера /metrics (пусто - отключено)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "уровень логирования: debug, info, warn, error",
			},
			&cli.BoolFlag{
				Name:  "video-sn",
				Value: true,
				Usage: "порядковые номера AL2 в видеоканале",
			},
			&cli.BoolFlag{
				Name:  "sdp",
				Usage: "вывести SDP предложение ноги в stdout",
			},
			&cli.StringFlag{
				Name:  "answer",
				Usage: "файл SDP ответа удаленной стороны: payload types и адрес аудио",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := gateway.DefaultConfig()
	cfg.LogLevel = c.String("log-level")
	cfg.VideoUseSN = c.Bool("video-sn")
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := gateway.ParseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	legCfg := gateway.UDPLegConfigFrom(cfg, c.String("listen"), c.String("remote"))
	legCfg.Logger = logger
	leg, err := gateway.NewUDPLeg(legCfg)
	if err != nil {
		return err
	}
	logger.Info("RTP нога открыта", slog.String("local", leg.LocalAddr().String()))

	if c.Bool("sdp") {
		if err := printOffer(cfg, leg.LocalAddr()); err != nil {
			leg.Close()
			return err
		}
	}

	session := gateway.NewLoopbackSession(cfg, al2.NewMetrics(reg, cfg.MetricsNamespace), logger)
	bridge, err := gateway.NewBridge(cfg, session, leg,
		gateway.WithBridgeLogger(logger),
		gateway.WithBridgeMetrics(gateway.NewMetrics(reg, cfg.MetricsNamespace)),
	)
	if err != nil {
		leg.Close()
		return err
	}

	if path := c.String("answer"); path != "" {
		if err := applyAnswerFile(path, bridge, leg, logger); err != nil {
			leg.Close()
			return err
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if addr := c.String("metrics"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ошибка HTTP сервера метрик", slog.String("error", err.Error()))
			}
		}()
		logger.Info("метрики доступны", slog.String("addr", addr))
	}

	runErr := bridge.Run(ctx)
	logger.Info("завершение", slog.String("state", bridge.State()))

	err = multierr.Append(runErr, leg.Close())
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = multierr.Append(err, srv.Shutdown(shutdownCtx))
	}
	return err
}

// printOffer печатает SDP предложение; аудио и видео делят одну ногу
func printOffer(cfg gateway.Config, local *net.UDPAddr) error {
	host := local.IP.String()
	if local.IP.IsUnspecified() {
		host = "127.0.0.1"
	}

	raw, err := gateway.DescribeLeg(cfg, host, local.Port, local.Port).Marshal()
	if err != nil {
		return fmt.Errorf("ошибка формирования SDP: %w", err)
	}
	_, err = os.Stdout.Write(raw)
	return err
}

// applyAnswerFile читает SDP ответ, обновляет payload types моста и
// направляет ногу на адрес аудио из ответа
func applyAnswerFile(path string, bridge *gateway.Bridge, leg *gateway.UDPLeg, logger *slog.Logger) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ошибка чтения SDP ответа: %w", err)
	}

	answer := &sdp.SessionDescription{}
	if err := answer.Unmarshal(raw); err != nil {
		return fmt.Errorf("ошибка разбора SDP ответа: %w", err)
	}

	if err := bridge.ApplyAnswer(answer); err != nil {
		return err
	}

	audioAddr, err := gateway.MediaAddr(answer, "audio")
	if err != nil {
		return err
	}
	if err := leg.SetRemoteAddr(audioAddr); err != nil {
		return err
	}
	logger.Info("SDP ответ применен", slog.String("remote", audioAddr))

	// Нога одна, видео уходит на адрес аудио
	if videoAddr, err := gateway.MediaAddr(answer, "video"); err == nil && videoAddr != audioAddr {
		logger.Warn("видео в ответе на отдельном адресе, используется адрес аудио",
			slog.String("video", videoAddr))
	}
	return nil
}
