package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/arena/pkg/log"
	"github.com/cbodonnell/arena/pkg/maps"
	"github.com/cbodonnell/arena/pkg/network"
	"github.com/cbodonnell/arena/pkg/session"
	"github.com/cbodonnell/arena/pkg/version"
	"golang.org/x/sync/errgroup"
)

func main() {
	serverHost := flag.String("server", "127.0.0.1", "Server host to join")
	port := flag.Int("port", network.DefaultServerPort, "Server port to join, or to listen on with -host")
	username := flag.String("username", "", "Username (required)")
	tps := flag.Int("tps", 30, "Game loop ticks per second")
	host := flag.Bool("host", false, "Host a server in-process and join it")
	mapPath := flag.String("map", "", "Map to host: built-in name or path to a map file")
	maxKills := flag.Int("max-kills", network.DefaultMaxKills, "Kills needed to win a hosted match")
	mapCacheDir := flag.String("map-cache", "", "Directory to cache custom maps received from servers")
	bot := flag.Bool("bot", false, "Wander and shoot instead of standing still")
	scan := flag.Bool("scan", false, "Scan the local network for servers and exit")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting arena client version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *scan {
		if err := scanForServers(ctx, *port); err != nil {
			log.Error("Scan failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if *tps <= 0 {
		panic(fmt.Sprintf("Invalid ticks per second %d", *tps))
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sc := session.Context{
		Username:         *username,
		ServerAddr:       network.ServerAddress(*serverHost, *port),
		Port:             *port,
		MapPath:          *mapPath,
		MaxKills:         *maxKills,
		GameLoopInterval: time.Second / time.Duration(*tps),
		MapCache:         maps.NewCache(*mapCacheDir),
		Rand:             rng,
	}
	if *bot {
		sc.Input = newBotInput(rand.New(rand.NewSource(rng.Int63())))
	}

	var s *session.Session
	if *host {
		s, err = session.Host(ctx, sc)
	} else {
		s, err = session.Join(ctx, sc)
	}
	if err != nil {
		log.Error("Failed to start session: %v", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		return s.Wait()
	})
	g.Go(func() error {
		reportMatch(gctx, s)
		stop()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Leaving session")
		return s.Close()
	})
	if err := g.Wait(); err != nil {
		log.Error("Session stopped: %v", err)
		os.Exit(1)
	}
}

func scanForServers(ctx context.Context, port int) error {
	servers, err := network.ScanForServers(ctx, network.ScanOptions{Port: port})
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		fmt.Println("No servers found")
		return nil
	}
	for _, s := range servers {
		fmt.Printf("%s\t%s\t%d players\n", s.Addr, s.MapName, s.Players)
	}
	return nil
}

// reportMatch logs the scoreboard every few seconds until the match is over.
func reportMatch(ctx context.Context, s *session.Session) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			world := s.World()
			if world == nil {
				continue
			}
			for _, p := range world.Players() {
				log.Info("%s: %d kills, %d deaths, %d health", p.Username, p.Kills, p.Deaths, p.Health)
			}
			if world.IsGameOver() {
				winner, kills := world.Winner()
				log.Info("Match over: %s won with %d kills", winner, kills)
				return
			}
		}
	}
}
