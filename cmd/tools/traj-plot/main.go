// Command traj-plot renders the estimated trajectory of a recorded run
// as a top-down X/Y plot.
package main

import (
	"flag"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fieldsense/lidarodom/internal/posestore"
)

func main() {
	var (
		dbPath = flag.String("db", "trajectories.db", "SQLite database with recorded runs")
		runID  = flag.String("run", "", "run to plot (default: most recent)")
		out    = flag.String("out", "trajectory.png", "output image path")
	)
	flag.Parse()

	store, err := posestore.Open(*dbPath)
	if err != nil {
		log.Fatalf("[traj-plot] open pose store: %v", err)
	}
	defer store.Close()

	id := *runID
	if id == "" {
		latest, err := store.LatestRun()
		if err != nil {
			log.Fatalf("[traj-plot] pick run: %v", err)
		}
		id = latest.ID
		log.Printf("[traj-plot] using latest run %s (%s)", id, latest.Dataset)
	}

	poses, err := store.Poses(id)
	if err != nil {
		log.Fatalf("[traj-plot] load poses: %v", err)
	}
	if len(poses) == 0 {
		log.Fatalf("[traj-plot] run %s has no poses", id)
	}

	pts := make(plotter.XYs, len(poses))
	for i, pose := range poses {
		tr := pose.Translation()
		pts[i].X = tr.X
		pts[i].Y = tr.Y
	}

	p := plot.New()
	p.Title.Text = "Estimated trajectory " + id
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatalf("[traj-plot] build line: %v", err)
	}
	p.Add(line)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, *out); err != nil {
		log.Fatalf("[traj-plot] save plot: %v", err)
	}
	log.Printf("[traj-plot] wrote %d poses to %s", len(poses), *out)
}
