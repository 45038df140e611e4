// Package main is a load generator for the elevator bank server.
// It opens many WebSocket clients that fire random commands and reports
// throughput, result latency and rejection rates.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/ElevatorBank/internal/network"
)

// Config for the load generator.
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	Floors         int
	Elevators      int
	Output         string
}

// Stats tracks performance metrics.
type Stats struct {
	CommandsSent    int64
	ResultsOK       int64
	ResultsRejected int64
	EventsReceived  int64
	Errors          int64
	Latencies       []time.Duration
	mu              sync.Mutex
}

var commandTypes = []string{
	network.CommandRequest,
	network.CommandMove,
	network.CommandLoad,
	network.CommandUnload,
	network.CommandAddPeople,
	network.CommandRemovePeople,
	network.CommandCall,
	network.CommandStatus,
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 20, "Number of concurrent clients")
	interval := flag.Duration("interval", 100*time.Millisecond, "Command interval per client")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	floors := flag.Int("floors", 10, "Floors in the target building")
	elevators := flag.Int("elevators", 3, "Elevators in the target building")
	output := flag.String("out", "loadgen_results.json", "Where to write the JSON summary")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		Floors:         *floors,
		Elevators:      *elevators,
		Output:         *output,
	}

	fmt.Println("=========================================")
	fmt.Println("ELEVATOR BANK LOAD GENERATOR")
	fmt.Println("=========================================")
	fmt.Printf("Server:   %s\n", config.ServerURL)
	fmt.Printf("Clients:  %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	start := time.Now()
	stats := runLoad(ctx, config)
	printResults(stats, config, time.Since(start))
}

func runLoad(ctx context.Context, config Config) *Stats {
	stats := &Stats{Latencies: make([]time.Duration, 0, 10000)}

	var wg sync.WaitGroup
	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid a thundering herd.
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Printf("All %d clients started\n\n", config.NumClients)

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("Progress: sent=%d ok=%d rejected=%d events=%d errors=%d\n",
					atomic.LoadInt64(&stats.CommandsSent),
					atomic.LoadInt64(&stats.ResultsOK),
					atomic.LoadInt64(&stats.ResultsRejected),
					atomic.LoadInt64(&stats.EventsReceived),
					atomic.LoadInt64(&stats.Errors))
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		log.Printf("Client %d: connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	var pending sync.Map // command ID -> send time
	go func() {
		for {
			var env network.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			switch env.Kind {
			case network.KindEvent:
				atomic.AddInt64(&stats.EventsReceived, 1)
			case network.KindResult:
				if env.Result == nil {
					continue
				}
				if env.Result.OK {
					atomic.AddInt64(&stats.ResultsOK, 1)
				} else {
					atomic.AddInt64(&stats.ResultsRejected, 1)
				}
				if sent, ok := pending.LoadAndDelete(env.Result.ID); ok {
					stats.mu.Lock()
					stats.Latencies = append(stats.Latencies, time.Since(sent.(time.Time)))
					stats.mu.Unlock()
				}
			}
		}
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(clientID)))
	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for seq := 0; ; seq++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cmd := randomCommand(rng, config)
			cmd.ID = strconv.Itoa(clientID) + "-" + strconv.Itoa(seq)

			pending.Store(cmd.ID, time.Now())
			if err := conn.WriteJSON(cmd); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.CommandsSent, 1)
		}
	}
}

func randomCommand(rng *rand.Rand, config Config) network.Command {
	cmd := network.Command{Type: commandTypes[rng.Intn(len(commandTypes))]}
	floor := func() int { return rng.Intn(config.Floors) + 1 }

	switch cmd.Type {
	case network.CommandRequest:
		cmd.Floor = floor()
	case network.CommandMove:
		cmd.From, cmd.To = floor(), floor()
	case network.CommandLoad, network.CommandUnload:
		cmd.Elevator = rng.Intn(config.Elevators) + 1
		cmd.Count = rng.Intn(4) + 1
	case network.CommandAddPeople, network.CommandRemovePeople:
		cmd.Floor = floor()
		cmd.Count = rng.Intn(5) + 1
	case network.CommandCall:
		cmd.Floor = floor()
		cmd.Passengers = rng.Intn(10) + 1
	}
	return cmd
}

func printResults(stats *Stats, config Config, elapsed time.Duration) {
	fmt.Println("\n=========================================")
	fmt.Println("LOAD TEST RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.CommandsSent)
	ok := atomic.LoadInt64(&stats.ResultsOK)
	rejected := atomic.LoadInt64(&stats.ResultsRejected)
	eventsSeen := atomic.LoadInt64(&stats.EventsReceived)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Commands Sent:     %d\n", sent)
	fmt.Printf("Results OK:        %d\n", ok)
	fmt.Printf("Results Rejected:  %d\n", rejected)
	fmt.Printf("Events Received:   %d\n", eventsSeen)
	fmt.Printf("Errors:            %d\n", errs)

	throughput := float64(sent) / elapsed.Seconds()
	fmt.Printf("Throughput:        %.2f cmd/sec\n", throughput)

	stats.mu.Lock()
	latencies := append([]time.Duration(nil), stats.Latencies...)
	stats.mu.Unlock()

	var p50, p99, max time.Duration
	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		p50 = latencies[len(latencies)/2]
		p99 = latencies[len(latencies)*99/100]
		max = latencies[len(latencies)-1]

		fmt.Printf("\nResult latency:\n")
		fmt.Printf("  p50: %v\n", p50)
		fmt.Printf("  p99: %v\n", p99)
		fmt.Printf("  Max: %v\n", max)
	}

	fmt.Println("\n-----------------------------------------")
	answered := ok + rejected
	switch {
	case errs == 0 && answered >= sent*95/100:
		fmt.Println("PASSED: server answered the load")
	case float64(errs)/float64(sent+1) < 0.05:
		fmt.Println("WARNING: some errors or unanswered commands")
	default:
		fmt.Println("FAILED: high error rate")
	}
	fmt.Println("=========================================")

	results := map[string]interface{}{
		"commands_sent":      sent,
		"results_ok":         ok,
		"results_rejected":   rejected,
		"events_received":    eventsSeen,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"latency_p50":        p50.String(),
		"latency_p99":        p99.String(),
		"latency_max":        max.String(),
		"config": map[string]interface{}{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}

	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(config.Output, jsonData, 0644); err != nil {
		log.Printf("Failed to write %s: %v", config.Output, err)
		return
	}
	fmt.Printf("\nResults saved to %s\n", config.Output)
}
