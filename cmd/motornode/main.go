package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/JamesRaub/scarab/pkg/config"
	"github.com/JamesRaub/scarab/pkg/drivenode"
	"github.com/JamesRaub/scarab/pkg/motor"
	"github.com/JamesRaub/scarab/pkg/roboclaw"
	"github.com/JamesRaub/scarab/pkg/telemetry"
)

func main() {
	fmt.Println("---- scarab motor node ----")

	configPath := flag.String("config", "", "path to driver config YAML")
	dummy := flag.Bool("dummy", false, "run against a dummy motor controller")
	flag.Parse()

	cfg, err := config.LoadDrive(*configPath)
	if err != nil {
		log.Fatalln(err)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	registerSignalHandlers(cancel)

	mq, err := telemetry.ConnectMQTT(cfg.Broker, "scarab-motornode")
	if err != nil {
		log.Fatalln(err)
	}
	defer mq.Close()

	var claw roboclaw.Interface
	if *dummy {
		claw = roboclaw.Dummy()
	} else {
		claw = roboclaw.New(cfg.Port, cfg.Address)
	}

	driver := motor.NewController(claw, mq.Publisher(""), cfg.Motor)
	if err := driver.Supervisor().OpenBlocking(ctx); err != nil {
		log.Fatalln("Shut down before the roboclaw link came up:", err)
	}
	if err := driver.Configure(); err != nil {
		fmt.Println("Failed to configure roboclaw:", err)
		driver.Supervisor().RecordFailure(ctx)
	}
	driver.SetVelocity(ctx, 0.0, 0.0)

	node := drivenode.New(driver, mq.Publisher(""), cfg)

	err = mq.SubscribeTwist("cmd_vel", func(t telemetry.Twist) {
		node.OnTwist(ctx, t)
	})
	if err != nil {
		log.Fatalln(err)
	}
	err = mq.Subscribe("reconfigure", func(payload []byte) {
		var r drivenode.Reconfig
		if err := json.Unmarshal(payload, &r); err != nil {
			fmt.Println("Bad reconfigure payload:", err)
			return
		}
		node.Reconfigure(ctx, r)
	})
	if err != nil {
		log.Fatalln(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go node.Loop(ctx, &wg)

	<-ctx.Done()
	wg.Wait()
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
