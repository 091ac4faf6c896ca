package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestListenAndServeReturnsListenerError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	done := make(chan error, 1)
	go func() {
		done <- listenAndServe(context.Background(), app, busy.Addr().String())
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error for an address already in use")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listenAndServe kept blocking after the listener failed")
	}
}

func TestListenAndServeShutsDownOnCancel(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- listenAndServe(ctx, app, "127.0.0.1:0")
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("shutdown error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("listenAndServe did not return after cancel")
	}
}
