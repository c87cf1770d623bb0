package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/emiller/scheduler/internal/calendarconfig"
	"github.com/emiller/scheduler/internal/core"
	"github.com/emiller/scheduler/internal/session"
	"github.com/emiller/scheduler/internal/shell"
	"github.com/emiller/scheduler/internal/store"
	"github.com/emiller/scheduler/internal/timewarrior"
	"github.com/emiller/scheduler/internal/worklog"
)

func dataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(homeDir, ".local", "share", "scheduler")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

func configDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "scheduler"), nil
}

func loadSession() (*session.Session, string, string, error) {
	cfgDir, err := configDir()
	if err != nil {
		return nil, "", "", err
	}
	cal, err := calendarconfig.Import(cfgDir)
	if err != nil {
		return nil, "", "", fmt.Errorf("loading calendar config from %s: %w", cfgDir, err)
	}

	dir, err := dataDir()
	if err != nil {
		return nil, "", "", err
	}
	tasksPath := filepath.Join(dir, "tasks.json")
	worklogPath := filepath.Join(dir, "worklog.json")

	tasks, err := store.LoadTasks(tasksPath)
	if err != nil {
		return nil, "", "", fmt.Errorf("loading tasks: %w", err)
	}
	log, err := store.LoadWorkLog(worklogPath)
	if err != nil {
		return nil, "", "", fmt.Errorf("loading work log: %w", err)
	}

	return session.New(cal, tasks, log), tasksPath, worklogPath, nil
}

func saveSession(sess *session.Session, tasksPath, worklogPath string) error {
	if err := store.SaveTasks(sess.Tasks, tasksPath); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	if err := store.SaveWorkLog(sess.Log, worklogPath); err != nil {
		return fmt.Errorf("saving work log: %w", err)
	}
	return nil
}

func main() {
	args := os.Args[1:]

	if len(args) == 0 {
		fmt.Println("scheduler - interactive task scheduling shell")
		fmt.Println("Usage:")
		fmt.Println("  scheduler shell [date]    - browse the schedule for date (default: today)")
		fmt.Println("  scheduler add <title>     - add a new task")
		fmt.Println("  scheduler schedule        - recompute the slot allocation")
		fmt.Println("  scheduler list             - list all tasks")
		fmt.Println("  scheduler import-timewarrior <task-id> - import timew intervals for a task")
		os.Exit(0)
	}

	switch args[0] {
	case "shell":
		day := time.Now()
		if len(args) > 1 {
			parsed, err := time.ParseInLocation("2006-01-02", args[1], time.Local)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid date %q: %v\n", args[1], err)
				os.Exit(1)
			}
			day = parsed
		}
		runShell(day)

	case "add":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: scheduler add <title>")
			os.Exit(1)
		}
		runAdd(args[1])

	case "schedule":
		runSchedule()

	case "list":
		runList()

	case "import-timewarrior":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: scheduler import-timewarrior <task-id>")
			os.Exit(1)
		}
		runImportTimewarrior(args[1])

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		os.Exit(1)
	}
}

func runShell(day time.Time) {
	sess, tasksPath, worklogPath, err := loadSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := sess.Schedule(time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "Error scheduling: %v\n", err)
		os.Exit(1)
	}
	if err := shell.Run(sess, day); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := saveSession(sess, tasksPath, worklogPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving: %v\n", err)
		os.Exit(1)
	}
}

func runAdd(title string) {
	sess, tasksPath, worklogPath, err := loadSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	task := core.NewTask(title, core.NoDeadline(), "")
	if _, err := sess.AddTask(task); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := saveSession(sess, tasksPath, worklogPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("added %s (%s)\n", task.Title, task.ID)
}

func runSchedule() {
	sess, tasksPath, worklogPath, err := loadSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := sess.Schedule(time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := saveSession(sess, tasksPath, worklogPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("schedule recomputed")
}

func runList() {
	sess, _, _, err := loadSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, task := range sess.IterTasks() {
		fmt.Printf("%s  %-9s  %s\n", task.ID, statusLabel(task), task.Title)
	}
}

func runImportTimewarrior(prefix string) {
	sess, tasksPath, worklogPath, err := loadSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	id, ok := sess.FindTaskByPrefix(prefix)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no task matches prefix %q\n", prefix)
		os.Exit(1)
	}

	client := timewarrior.NewClient()
	n, err := worklog.ImportFromTimewarrior(client, id, sess.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := saveSession(sess, tasksPath, worklogPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("imported %d timewarrior interval(s)\n", n)
}

func statusLabel(task *core.Task) string {
	switch {
	case task.IsCompleted():
		return "completed"
	case task.IsDropped():
		return "dropped"
	case task.IsBlocked():
		return "blocked"
	default:
		return "ready"
	}
}
