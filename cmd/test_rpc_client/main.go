package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	grpc_adapter "github.com/JoeShih716/go-blood-ledger/internal/app/core/adapter/in/grpc"
	grpc_pool "github.com/JoeShih716/go-blood-ledger/pkg/grpc"
)

// 模擬多個醫院站點同時申請同一血型，驗證庫存不會扣成負數
func main() {
	addr := flag.String("addr", "localhost:50051", "blood bank server address")
	group := flag.String("group", "O-", "blood group to stress")
	seed := flag.Int64("seed", 50, "units donated before the run")
	stations := flag.Int("stations", 20, "number of concurrent stations")
	perStation := flag.Int("requests", 10, "requests per station (1 unit each)")
	conns := flag.Int("conns", grpc_pool.DefaultSize, "connections shared by the stations")
	flag.Parse()

	pool, err := grpc_pool.NewPool(*addr,
		grpc_pool.WithSize(*conns),
		grpc_pool.WithContentSubtype(grpc_adapter.CodecName),
	)
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	defer pool.Close()

	c := newClient(pool)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	// 1. 登記捐血者並入庫
	reg, err := c.RegisterDonor(ctx, &grpc_adapter.RegisterDonorRequest{
		Name:       "load-test-donor",
		BloodGroup: *group,
		Contact:    "n/a",
	})
	if err != nil {
		log.Fatalf("RegisterDonor failed: %v", err)
	}
	ref := uuid.New().String()
	donated, err := c.Donate(ctx, &grpc_adapter.DonateRequest{RefID: ref, DonorID: reg.DonorID, Units: *seed})
	if err != nil {
		log.Fatalf("Donate failed: %v", err)
	}
	start := donated.UnitsAvailable
	fmt.Printf("Seeded %d units of %s (stock now %d)\n", *seed, *group, start)

	// 重送同一個 ref_id 不應重複入庫
	replayed, err := c.Donate(ctx, &grpc_adapter.DonateRequest{RefID: ref, DonorID: reg.DonorID, Units: *seed})
	if err != nil {
		log.Fatalf("Donate replay failed: %v", err)
	}
	if !replayed.Replayed || replayed.Transaction.ID != donated.Transaction.ID {
		log.Fatalf("replayed donation was applied twice: %+v", replayed)
	}

	// 2. 各站點併發申請
	var fulfilled, rejected, failed atomic.Int64
	var wg sync.WaitGroup
	startTime := time.Now()
	for s := 0; s < *stations; s++ {
		wg.Add(1)
		go func(station int) {
			defer wg.Done()
			c := newClient(pool)
			for i := 0; i < *perStation; i++ {
				resp, err := c.Request(ctx, &grpc_adapter.BloodRequest{
					RefID:      uuid.New().String(),
					Requester:  fmt.Sprintf("station-%02d", station),
					BloodGroup: *group,
					Units:      1,
				})
				switch {
				case err != nil:
					failed.Add(1)
					log.Printf("station %d request failed: %v", station, err)
				case resp.Success:
					fulfilled.Add(1)
					if resp.UnitsAvailable < 0 {
						log.Fatalf("stock went negative: %d", resp.UnitsAvailable)
					}
				default:
					rejected.Add(1)
				}
			}
		}(s)
	}
	wg.Wait()
	elapsed := time.Since(startTime)

	// 3. 驗證
	units, err := c.GetUnits(ctx, &grpc_adapter.GetUnitsRequest{BloodGroup: *group})
	if err != nil {
		log.Fatalf("GetUnits failed: %v", err)
	}
	total := int64(*stations * *perStation)
	fmt.Printf("Completed %d requests in %v\n", total, elapsed)
	fmt.Printf("Fulfilled: %d, Rejected (insufficient): %d, Errors: %d\n", fulfilled.Load(), rejected.Load(), failed.Load())
	fmt.Printf("Stock %s: %d -> %d\n", *group, start, units.UnitsAvailable)

	if units.UnitsAvailable < 0 {
		log.Fatalf("FAIL: negative stock %d", units.UnitsAvailable)
	}
	if failed.Load() == 0 && start-fulfilled.Load() != units.UnitsAvailable {
		log.Fatalf("FAIL: stock %d does not match %d - %d fulfilled", units.UnitsAvailable, start, fulfilled.Load())
	}
	fmt.Println("OK")
}

// newClient 每個站點各取一條連線
func newClient(pool *grpc_pool.Pool) *grpc_adapter.Client {
	conn, err := pool.Conn()
	if err != nil {
		log.Fatalf("no connection: %v", err)
	}
	return grpc_adapter.NewClient(conn)
}
