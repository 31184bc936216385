package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/bankcascade-backend/internal/adapter/grpc"
	"github.com/simaogato/bankcascade-backend/internal/adapter/repository/memory"
	"github.com/simaogato/bankcascade-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/bankcascade-backend/internal/config"
	"github.com/simaogato/bankcascade-backend/internal/domain"
	"github.com/simaogato/bankcascade-backend/internal/usecase/sweep"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize sweep run storage (Postgres when configured, memory otherwise)
	var sweepRepo domain.SweepRepository
	if cfg.DBConnStr != "" {
		db, err := postgres.NewDB(cfg.DBConnStr)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to prepare database schema: %v", err)
		}
		sweepRepo = postgres.NewSweepRepository(db)
		log.Println("Storing sweep runs in Postgres")
	} else {
		sweepRepo = memory.NewSweepRepository()
		log.Println("DB not configured, storing sweep runs in memory")
	}

	// 3. Initialize services
	newRand := sweep.UnseededRand()
	if cfg.Seed != nil {
		newRand = sweep.SeededRand(*cfg.Seed)
		log.Printf("Using fixed simulation seed %d", *cfg.Seed)
	}
	sweepService := sweep.NewSweepService(sweepRepo, newRand, log.Default())

	// 4. Start gRPC server
	grpcServer := grpclib.NewServer(
		grpclib.UnaryInterceptor(grpcadapter.AuthInterceptor(cfg.APIToken)),
		grpclib.StreamInterceptor(grpcadapter.StreamAuthInterceptor(cfg.APIToken)),
	)

	grpcadapter.RegisterContagionServiceServer(grpcServer, grpcadapter.NewServer(sweepService, newRand, cfg.Defaults))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.GRPCPort, err)
	}

	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC server: %v", err)
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	grpcServer.GracefulStop()
	log.Println("gRPC server stopped")
}
