package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/report"
	"github.com/saldo27/shiftsched/internal/state"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	headerColor  = color.New(color.FgMagenta, color.Bold)
)

// renderSchedule prints the filled grid as a table: one row per date,
// one column per post.
func renderSchedule(st *state.ScheduleState, h *dateutil.Horizon) {
	headerColor.Println("SCHEDULE")

	maxPosts := 0
	for _, d := range h.Dates() {
		if n := h.PostsOn(d); n > maxPosts {
			maxPosts = n
		}
	}

	headers := make([]string, 0, maxPosts+1)
	headers = append(headers, "Date")
	for p := 0; p < maxPosts; p++ {
		headers = append(headers, fmt.Sprintf("Post %d", p))
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetRowSeparator("-")

	for _, d := range h.Dates() {
		row := make([]string, 0, maxPosts+1)
		row = append(row, d.String())
		cells := st.CellsOn(d)
		for p := 0; p < maxPosts; p++ {
			if p < len(cells) && !cells[p].Empty() {
				row = append(row, cells[p].WorkerID)
			} else {
				row = append(row, "")
			}
		}
		table.Append(row)
	}
	table.Render()
}

// renderReport prints the termination report: empty-cell count and any
// remaining tolerance violators.
func renderReport(r report.Report, workers []*model.Worker) {
	fmt.Println()
	headerColor.Println("TERMINATION REPORT")
	fmt.Printf("Producing phase: %s\n", r.ProducingPhase)
	fmt.Printf("Empty cells: %d / %d\n", r.EmptyCells, r.TotalCells)

	if len(r.Violators) == 0 {
		successColor.Println("All workers within tolerance.")
		return
	}

	warningColor.Println("Tolerance violators:")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Worker", "Current", "Target", "Delta", "Tier"})
	table.SetBorder(false)
	for _, v := range r.Violators {
		table.Append([]string{
			v.WorkerID,
			fmt.Sprintf("%d", v.Current),
			fmt.Sprintf("%d", v.Target),
			fmt.Sprintf("%+d", v.Delta),
			v.Tier,
		})
	}
	table.Render()
}
