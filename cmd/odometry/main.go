// Command odometry replays a recorded LiDAR dataset through the
// registration pipeline and records the estimated trajectory.
//
// Two sources are supported: a directory of KITTI-style velodyne .bin
// frames, or (when built with -tags=pcap) a VLP-16 packet capture.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/golang/geo/r3"

	"github.com/fieldsense/lidarodom/internal/config"
	"github.com/fieldsense/lidarodom/internal/dataset"
	"github.com/fieldsense/lidarodom/internal/odom"
	"github.com/fieldsense/lidarodom/internal/posestore"
)

const logInterval = 50 // frames between progress log lines

func main() {
	var (
		dataDir    = flag.String("data", "", "directory of KITTI velodyne .bin scans")
		pcapFile   = flag.String("pcap", "", "VLP-16 packet capture to replay (needs -tags=pcap build)")
		pcapPort   = flag.Int("pcap-port", 2368, "UDP port carrying sensor data in the capture")
		dbPath     = flag.String("db", "trajectories.db", "SQLite database for estimated poses")
		configPath = flag.String("config", "", "optional JSON tuning overrides")
		deskew     = flag.Bool("deskew", false, "enable per-point motion compensation")
		maxScans   = flag.Int("max-scans", 0, "stop after this many scans (0 = all)")
	)
	flag.Parse()

	if (*dataDir == "") == (*pcapFile == "") {
		log.Fatal("[odometry] exactly one of -data or -pcap is required")
	}

	cfg := odom.DefaultConfig()
	if *configPath != "" {
		tuning, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("[odometry] load config: %v", err)
		}
		cfg = tuning.Apply(cfg)
		log.Printf("[odometry] applied tuning overrides from %s", *configPath)
	}
	if *deskew {
		cfg.Deskew = true
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		log.Fatalf("[odometry] encode config: %v", err)
	}

	store, err := posestore.Open(*dbPath)
	if err != nil {
		log.Fatalf("[odometry] open pose store: %v", err)
	}
	defer store.Close()

	source := *dataDir
	if source == "" {
		source = *pcapFile
	}
	runID, err := store.CreateRun(source, string(cfgJSON))
	if err != nil {
		log.Fatalf("[odometry] create run: %v", err)
	}
	log.Printf("[odometry] run %s: source=%s deskew=%v voxel=%.2fm", runID, source, cfg.Deskew, cfg.VoxelSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := odom.NewOdometry(cfg)
	rec := &runRecorder{store: store, runID: runID, maxScans: *maxScans, started: time.Now()}

	if *dataDir != "" {
		err = replayBinDir(ctx, *dataDir, cfg.Deskew, engine, rec)
	} else {
		err = dataset.ReadPCAPScans(ctx, *pcapFile, *pcapPort, func(points []r3.Vector, timestamps []float64) error {
			return rec.processFrame(engine, points, timestamps)
		})
	}
	if err != nil && !errors.Is(err, errScanLimit) && !errors.Is(err, context.Canceled) {
		log.Fatalf("[odometry] replay failed: %v", err)
	}

	elapsed := time.Since(rec.started)
	log.Printf("[odometry] run %s complete: %d frames in %v (%.1f fps), final position %s",
		runID, rec.frames, elapsed.Round(time.Millisecond),
		float64(rec.frames)/elapsed.Seconds(), formatPosition(engine))
}

// errScanLimit stops replay when -max-scans is reached.
var errScanLimit = errors.New("scan limit reached")

type runRecorder struct {
	store    *posestore.Store
	runID    string
	maxScans int
	started  time.Time
	frames   int
}

func (r *runRecorder) processFrame(engine *odom.Odometry, points []r3.Vector, timestamps []float64) error {
	if r.maxScans > 0 && r.frames >= r.maxScans {
		return errScanLimit
	}

	pose, result, err := engine.RegisterFrame(points, timestamps)
	if err != nil {
		return fmt.Errorf("frame %d: %w", r.frames, err)
	}
	if result.Degenerate {
		log.Printf("[odometry] frame %d: degenerate geometry, keeping prediction", r.frames)
	}

	if err := r.store.InsertPose(r.runID, r.frames, time.Now(), pose); err != nil {
		return err
	}
	r.frames++

	if r.frames%logInterval == 0 {
		tr := pose.Translation()
		elapsed := time.Since(r.started)
		log.Printf("[odometry] frame %d: pos=(%.2f, %.2f, %.2f) iters=%d map=%d pts (%.1f fps)",
			r.frames, tr.X, tr.Y, tr.Z, result.Iterations, engine.LocalMap().Size(),
			float64(r.frames)/elapsed.Seconds())
	}
	return nil
}

// replayBinDir feeds every .bin scan in dir through the engine in frame
// order. Pseudo timestamps are reconstructed from azimuth only when
// deskewing needs them.
func replayBinDir(ctx context.Context, dir string, deskew bool, engine *odom.Odometry, rec *runRecorder) error {
	files, err := dataset.ScanFiles(dir)
	if err != nil {
		return err
	}
	log.Printf("[odometry] replaying %d scans from %s", len(files), dir)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			log.Printf("[odometry] stopping at %s on signal", filepath.Base(path))
			return err
		}

		points, err := dataset.ReadVelodyneBin(path)
		if err != nil {
			return err
		}
		var timestamps []float64
		if deskew {
			timestamps = dataset.PseudoTimestamps(points)
		}
		if err := rec.processFrame(engine, points, timestamps); err != nil {
			return err
		}
	}
	return nil
}

func formatPosition(engine *odom.Odometry) string {
	poses := engine.Poses()
	if len(poses) == 0 {
		return "(none)"
	}
	tr := poses[len(poses)-1].Translation()
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", tr.X, tr.Y, tr.Z)
}
