package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JamesRaub/scarab/pkg/config"
	"github.com/JamesRaub/scarab/pkg/simnode"
	"github.com/JamesRaub/scarab/pkg/telemetry"
)

func main() {
	fmt.Println("---- scarab kinematic sim ----")

	configPath := flag.String("config", "sim.yaml", "path to simulator config YAML")
	flag.Parse()

	cfg, err := config.LoadSim(*configPath)
	if err != nil {
		log.Fatalln(err)
	}
	if len(cfg.Agents) == 0 {
		log.Fatalln("No agents configured, nothing to simulate")
	}

	ctx, cancel := context.WithCancel(context.Background())
	registerSignalHandlers(cancel)

	mq, err := telemetry.ConnectMQTT(cfg.Broker, "scarab-kinematicsim")
	if err != nil {
		log.Fatalln(err)
	}
	defer mq.Close()

	manager := simnode.NewManager(cfg, func(name string) simnode.Publisher {
		return mq.Publisher(name)
	})

	for _, name := range manager.Names() {
		agent, _ := manager.Agent(name)
		err := mq.SubscribeTwist(name+"/cmd_vel", func(t telemetry.Twist) {
			agent.SetVelocity(t.LinearX, t.AngularZ)
		})
		if err != nil {
			log.Fatalln(err)
		}
		err = mq.SubscribePose(name+"/initialpose", func(p telemetry.PoseStamped) {
			agent.ResetPose(p.X, p.Y, p.Orientation.Yaw())
		})
		if err != nil {
			log.Fatalln(err)
		}
	}

	manager.Start(ctx)
	<-ctx.Done()
	manager.Wait()
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
