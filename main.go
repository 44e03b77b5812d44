package main

import (
	"crypto/rand"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/quangtn/voicelink/internal/api"
	"github.com/quangtn/voicelink/internal/call"
	"github.com/quangtn/voicelink/internal/callkit"
	"github.com/quangtn/voicelink/internal/config"
	"github.com/quangtn/voicelink/internal/logic"
	"github.com/quangtn/voicelink/internal/media"
	"github.com/quangtn/voicelink/internal/model"
	"github.com/quangtn/voicelink/internal/permission"
	"github.com/quangtn/voicelink/internal/repository"
	"github.com/quangtn/voicelink/internal/signaling"
	"github.com/quangtn/voicelink/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Config
	config.LoadConfig()

	// 2. Init Logger
	logger.InitLogger(config.AppConfig.Log.Level)
	logger.Log.Info("Starting VoiceLink node...")

	// 3. Init Database
	db := initDB()

	contactRepo := repository.NewContactRepository(db)
	recordRepo := repository.NewCallRecordRepository(db)
	webhookRepo := repository.NewWebhookRepository(db)

	// 4. Media engine and call controller
	engine, err := media.NewEngine(media.Config{
		STUNServers: config.AppConfig.Call.STUNServers,
		UDPPortMin:  config.AppConfig.Call.UDPPortMin,
		UDPPortMax:  config.AppConfig.Call.UDPPortMax,
		Audio: media.AudioConfig{
			InputDeviceName:  config.AppConfig.Call.Audio.InputDeviceName,
			OutputDeviceName: config.AppConfig.Call.Audio.OutputDeviceName,
			SampleRate:       config.AppConfig.Call.Audio.SampleRate,
			Channels:         config.AppConfig.Call.Audio.Channels,
			BitsPerSample:    config.AppConfig.Call.Audio.BitsPerSample,
			CaptureChunkMs:   config.AppConfig.Call.Audio.CaptureChunkMs,
			PlaybackChunkMs:  config.AppConfig.Call.Audio.PlaybackChunkMs,
		},
	})
	if err != nil {
		logger.Log.Fatalf("Failed to init media engine: %v", err)
	}

	gate := permission.NewGate(
		config.AppConfig.Call.Microphone,
		config.AppConfig.Call.Camera,
		permission.PortAudioProber{},
	)

	controller := call.NewController(nil, engine, callkit.Logging{}, gate,
		config.AppConfig.Call.RingTimeoutDuration())
	defer controller.Close()

	history := logic.NewHistoryService(recordRepo, logic.NewNotifyService(webhookRepo))
	controller.OnCallEnded(history.Record)

	// 5. Signaling channel
	sigClient := signaling.NewClient(
		config.AppConfig.Signaling.URL,
		config.AppConfig.Signaling.UserID,
		config.AppConfig.Signaling.Token,
		controller,
		config.AppConfig.Signaling.ReconnectAttempts,
		config.AppConfig.Signaling.ReconnectDelayDuration(),
	)
	controller.SetSignaling(sigClient)

	if config.AppConfig.Signaling.URL != "" {
		if err := sigClient.Connect(); err != nil {
			logger.Log.Errorf("Signaling connect failed, continuing offline: %v", err)
		}
		defer sigClient.Close()
	} else {
		logger.Log.Warn("No signaling URL configured, running offline")
	}

	// 6. Init Router
	if config.AppConfig.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	uh := api.NewUserHandler(db)
	ch := api.NewContactHandler(contactRepo)
	hh := api.NewHistoryHandler(recordRepo)
	wh := api.NewWebhookHandler(webhookRepo)
	callh := api.NewCallHandler(controller)

	apiGroup := r.Group("/api/v1")
	{
		apiGroup.POST("/login", uh.Login)

		authGroup := apiGroup.Group("/")
		authGroup.Use(api.AuthMiddleware(db))
		{
			authGroup.POST("/change_password", uh.ChangePassword)

			authGroup.GET("/contacts", ch.ListContacts)
			authGroup.POST("/contacts", ch.CreateContact)
			authGroup.PUT("/contacts/:peer_id", ch.UpdateContact)
			authGroup.DELETE("/contacts/:id", ch.DeleteContact)

			authGroup.GET("/status", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"signaling_connected": sigClient.Connected(),
					"call":                controller.Snapshot(),
				})
			})

			authGroup.GET("/calls", hh.ListHistory)
			authGroup.GET("/calls/stats", hh.GetStats)

			authGroup.GET("/call/state", callh.GetState)
			authGroup.POST("/call/start", callh.StartCall)
			authGroup.POST("/call/accept", callh.AcceptCall)
			authGroup.POST("/call/reject", callh.RejectCall)
			authGroup.POST("/call/hangup", callh.HangUp)
			authGroup.POST("/call/mute", callh.ToggleMute)
			authGroup.POST("/call/speaker", callh.ToggleSpeaker)
			authGroup.GET("/call/events", api.EventsWS(controller))

			adminGroup := authGroup.Group("/")
			adminGroup.Use(api.AdminOnly())
			{
				adminGroup.GET("/webhooks", wh.ListWebhooks)
				adminGroup.POST("/webhooks", wh.CreateWebhook)
				adminGroup.DELETE("/webhooks/:id", wh.DeleteWebhook)

				adminGroup.GET("/users", uh.ListUsers)
				adminGroup.POST("/users", uh.CreateUser)
				adminGroup.DELETE("/users/:id", uh.DeleteUser)
			}
		}
	}

	// 7. Run until interrupted
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Log.Info("Shutting down, ending active call")
		controller.Close()
		os.Exit(0)
	}()

	port := config.AppConfig.Server.Port
	logger.Log.Infof("Server listening on %s", port)
	if err := r.Run(port); err != nil {
		logger.Log.Fatalf("Server failed to start: %v", err)
	}
}

func initDB() *gorm.DB {
	var db *gorm.DB
	var err error

	driver := config.AppConfig.Database.Driver
	dsn := config.AppConfig.Database.DSN

	switch driver {
	case "mysql":
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		// Default to SQLite (pure Go)
		if dsn == "" {
			dsn = "voicelink.db"
		}
		db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}

	if err != nil {
		logger.Log.Fatalf("Failed to connect database (%s): %v", driver, err)
	}

	db.AutoMigrate(&model.User{}, &model.Contact{}, &model.CallRecord{}, &model.Webhook{})

	// Init Admin
	var count int64
	db.Model(&model.User{}).Count(&count)
	if count == 0 {
		const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
		ret := make([]byte, 12)
		for i := 0; i < 12; i++ {
			num, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
			if err != nil {
				logger.Log.Fatalf("Failed to generate random password: %v", err)
			}
			ret[i] = chars[num.Int64()]
		}
		randPw := string(ret)

		bytes, err := bcrypt.GenerateFromPassword([]byte(randPw), 14)
		if err != nil {
			logger.Log.Fatalf("Failed to hash password: %v", err)
		}

		admin := model.User{
			Username:     "admin",
			PasswordHash: string(bytes),
			Role:         "admin",
		}
		db.Create(&admin)
		logger.Log.Warnf("INITIAL ADMIN CREATED. Username: admin, Password: %s", randPw)
	}

	return db
}
