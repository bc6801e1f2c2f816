// Faceclock - on-site face attendance service
// One binary runs the whole kiosk backend:
// - WebRTC signaling + VP8 frame capture from kiosks
// - YuNet detection + SFace embeddings via OpenCV DNN
// - Geofence + GPS spoof gate, liveness challenges
// - Attendance decisions persisted to MySQL

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"faceclock/internal/attendance"
	"faceclock/internal/audio"
	"faceclock/internal/camera"
	"faceclock/internal/enroll"
	"faceclock/internal/extractor"
	"faceclock/internal/facemodel"
	"faceclock/internal/jobs"
	"faceclock/internal/rtc"
	"faceclock/internal/scanner"
	"faceclock/internal/server"
	"faceclock/internal/store"
	"faceclock/models"

	"github.com/joho/godotenv"
)

// ============================================================
// MAIN
// ============================================================

func main() {
	fmt.Println("╔════════════════════════════════════════════════════╗")
	fmt.Println("║  Faceclock - face attendance kiosk backend         ║")
	fmt.Println("║     - YuNet detection + SFace embeddings           ║")
	fmt.Println("║     - Geofence gate with GPS spoof checks          ║")
	fmt.Println("║     - Liveness challenges before decisions         ║")
	fmt.Println("╚════════════════════════════════════════════════════╝")

	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using system environment")
	}

	cfg := loadConfig()

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database setup failed: %v", err)
	}

	workers := store.NewWorkerRepo(db)
	attendanceRepo := store.NewAttendanceRepo(db)
	sites := store.NewSiteRepo(db)
	if err := sites.Refresh(); err != nil {
		log.Fatalf("❌ Initial site load failed: %v", err)
	}

	modelHandle, err := facemodel.Load(models.FaceModelConfig{
		DetectorModelPath: envOr("DETECTOR_MODEL", "./assets/face_detection_yunet.onnx"),
		EmbedderModelPath: envOr("EMBEDDER_MODEL", "./assets/face_recognition_sface.onnx"),
		DetectorInputW:    320,
		DetectorInputH:    320,
		ScoreThreshold:    0.8,
		NMSThreshold:      0.3,
	})
	if err != nil {
		log.Fatalf("❌ Model load failed: %v", err)
	}
	defer modelHandle.Close()

	faceExtractor := extractor.New(modelHandle)

	scanCfg := models.ScannerConfig{
		ScanInterval:     models.DefaultScanInterval,
		TrackInterval:    models.DefaultTrackInterval,
		MatchThreshold:   models.DefaultMatchThreshold,
		CooldownWindow:   models.DefaultCooldownWindow,
		LivenessRequired: os.Getenv("LIVENESS_REQUIRED") != "false",
		LivenessWindow:   models.DefaultLivenessWindow,
	}
	geoCfg := models.GeofenceConfig{
		AccuracyCeilingM:  models.DefaultAccuracyCeiling,
		PerfectAccuracyM:  models.DefaultPerfectAccuracy,
		MaxSpeedKMH:       models.DefaultMaxSpeedKMH,
		MinSpeedGap:       models.DefaultMinSpeedGap,
		TeleportDistanceM: models.DefaultTeleportMeters,
		TeleportWindow:    models.DefaultTeleportWindow,
	}
	engine := attendance.New(models.AttendanceConfig{
		FullShift:     models.DefaultFullShift,
		MinShift:      models.DefaultMinShift,
		ConfirmWindow: models.DefaultConfirmWindow,
	}, scanCfg.CooldownWindow)

	audioCfg := audio.Config{
		Enabled:     os.Getenv("AUDIO_ENABLED") != "false",
		WelcomePath: envOr("AUDIO_WELCOME", "./audio/welcome.ogg"),
		SuccessPath: envOr("AUDIO_SUCCESS", "./audio/scan-success.ogg"),
		FailPath:    envOr("AUDIO_FAIL", "./audio/scan-failed.ogg"),
	}

	// One scan session per connected kiosk, built on demand by the
	// signaling layer.
	factory := func(sessionId string, source camera.FrameSource, cues scanner.CuePlayer, publish func(interface{})) *scanner.Session {
		return scanner.NewSession(sessionId, scanCfg, geoCfg, scanner.Deps{
			Source:     source,
			Extractor:  faceExtractor,
			Engine:     engine,
			Workers:    workers,
			Attendance: attendanceRepo,
			Sites:      sites,
			Cues:       cues,
			Publish: func(status models.ScanStatus) {
				publish(status)
			},
		})
	}
	signaling := rtc.NewManager(factory, audioCfg)

	enrollManager := enroll.NewManager(models.EnrollConfig{
		PollInterval:       models.DefaultEnrollInterval,
		SessionDeadline:    models.DefaultEnrollDeadline,
		DuplicateThreshold: models.DefaultDuplicateThreshold,
		FastPath:           os.Getenv("ENROLL_FAST_PATH") == "true",
	}, faceExtractor, workers, envOr("PHOTO_DIR", "./photos"))

	scheduler := jobs.NewScheduler(attendanceRepo, sites)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("❌ Scheduler setup failed: %v", err)
	}

	router := server.NewRouter(cfg, server.Deps{
		Workers:    workers,
		Attendance: attendanceRepo,
		Sites:      sites,
		Enroll:     enrollManager,
		Signaling:  signaling,
		CameraId:   envInt("CAMERA_ID", 0),
	})

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}
	go func() {
		log.Printf("✅ Listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("\n⚠️ Shutting down...")
	scheduler.Stop()
	signaling.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	log.Println("✅ Done!")
}

// ============================================================
// CONFIGURATION
// ============================================================

func loadConfig() models.Config {
	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey == "" {
		log.Fatal("❌ JWT_KEY is required")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("❌ DATABASE_URL is required")
	}
	return models.Config{
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		DatabaseURL: dsn,
		JWTKey:      []byte(jwtKey),
		AllowOrigin: envOr("ALLOW_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
