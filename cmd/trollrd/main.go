package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fatmali/trollr/internal/config"
	"github.com/fatmali/trollr/internal/db"
	"github.com/fatmali/trollr/internal/model"
	"github.com/fatmali/trollr/internal/repository"
	"github.com/fatmali/trollr/internal/task"
	"github.com/fatmali/trollr/internal/timer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)
	taskRepo := repository.NewTaskRepository(database)

	ctx := context.Background()

	user, err := localUser(ctx, userRepo, cfg.UserDisplayName)
	if err != nil {
		log.Fatalf("resolve local user: %v", err)
	}

	settings, err := settingsRepo.Load(ctx)
	if err != nil {
		log.Fatalf("load timer settings: %v", err)
	}

	tasks := task.NewStore(taskRepo)
	machine := timer.NewMachine(settings, timer.Deps{
		Sessions: sessionRepo,
		Settings: settingsRepo,
		Tasks:    tasks,
		Notifier: timer.LogNotifier{},
		Sounds:   timer.LogSoundPlayer{},
	})
	coordinator := timer.NewCoordinator(machine)

	// The console is one mounted observer.
	coordinator.Register()
	defer coordinator.Deregister()

	fmt.Printf("trollr — hello %s. Type 'help' for commands.\n", user.DisplayName)
	repl(ctx, user, machine, tasks)
}

func localUser(ctx context.Context, users *repository.UserRepository, displayName string) (*model.User, error) {
	user, err := users.First(ctx)
	if err == nil {
		return user, nil
	}
	if err != repository.ErrNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	user = &model.User{
		ID:             uuid.NewString(),
		DisplayName:    displayName,
		TrollIntensity: 5,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func repl(ctx context.Context, user *model.User, machine *timer.Machine, tasks *task.Store) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "start":
			opts := timer.StartOptions{}
			if len(fields) > 1 {
				opts.TaskID = fields[1]
			}
			session := machine.StartSession(ctx, user.ID, opts)
			fmt.Printf("started session %s\n", session.ID)
		case "pause":
			machine.PauseSession(ctx)
		case "resume":
			machine.ResumeSession()
		case "done":
			machine.StopSession(ctx, true)
		case "abandon":
			machine.StopSession(ctx, false)
		case "reset":
			machine.ResetTimer(ctx)
		case "status":
			printStatus(machine)
		case "history":
			printHistory(ctx, user.ID, machine)
		case "work":
			if minutes, ok := parseMinutes(fields); ok {
				machine.SetWorkDuration(ctx, minutes)
			}
		case "break":
			if minutes, ok := parseMinutes(fields); ok {
				machine.SetBreakDuration(ctx, minutes)
			}
		case "link":
			if len(fields) > 1 {
				machine.SetLinkedTask(ctx, fields[1])
			}
		case "unlink":
			machine.SetLinkedTask(ctx, "")
		case "task":
			taskCommand(ctx, user.ID, tasks, fields[1:])
		case "help":
			printHelp()
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q — try 'help'\n", fields[0])
		}
	}
}

func printStatus(machine *timer.Machine) {
	snap := machine.Snapshot()
	state := "idle"
	if snap.Active && snap.Paused {
		state = "paused"
	} else if snap.Active {
		state = "running"
	}
	fmt.Printf("%s %s %s (%.0f%%)\n", state, snap.Mode, machine.FormattedTimeRemaining(), machine.Progress())
	if snap.CurrentSession != nil {
		fmt.Printf("session %s interruptions=%d\n", snap.CurrentSession.ID, snap.CurrentSession.Interruptions)
	}
	if snap.LinkedTaskID != "" {
		fmt.Printf("linked task %s\n", snap.LinkedTaskID)
	}
}

func printHistory(ctx context.Context, userID string, machine *timer.Machine) {
	sessions, err := machine.SessionsByUser(ctx, userID)
	if err != nil {
		fmt.Printf("history: %v\n", err)
		return
	}
	for _, session := range sessions {
		line := fmt.Sprintf("%s %s %s", session.StartedAt.Local().Format("2006-01-02 15:04"), session.Mode, session.Status)
		if session.TaskID != "" {
			line += " task=" + session.TaskID
		}
		if session.Interruptions > 0 {
			line += fmt.Sprintf(" interruptions=%d", session.Interruptions)
		}
		fmt.Println(line)
	}
}

func taskCommand(ctx context.Context, userID string, tasks *task.Store, args []string) {
	if len(args) == 0 {
		fmt.Println("usage: task add <title> | task list | task done <id>")
		return
	}
	switch args[0] {
	case "add":
		title := strings.Join(args[1:], " ")
		created, err := tasks.Create(ctx, task.CreateInput{UserID: userID, Title: title})
		if err != nil {
			fmt.Printf("add task: %v\n", err)
			return
		}
		fmt.Printf("created task %s\n", created.ID)
	case "list":
		list, err := tasks.ListFiltered(ctx, task.Filter{UserID: userID})
		if err != nil {
			fmt.Printf("list tasks: %v\n", err)
			return
		}
		for _, item := range list {
			fmt.Printf("%s [%s] %s (pomodoros: %d done / %d dropped)\n",
				item.ID, item.Status, item.Title, item.Pomodoros.Completed, item.Pomodoros.Abandoned)
		}
	case "done":
		if len(args) < 2 {
			fmt.Println("usage: task done <id>")
			return
		}
		if _, err := tasks.CompleteTask(ctx, args[1]); err != nil {
			fmt.Printf("complete task: %v\n", err)
		}
	default:
		fmt.Printf("unknown task command %q\n", args[0])
	}
}

func parseMinutes(fields []string) (int, bool) {
	if len(fields) < 2 {
		fmt.Println("usage:", fields[0], "<minutes>")
		return 0, false
	}
	minutes, err := strconv.Atoi(fields[1])
	if err != nil || minutes <= 0 {
		fmt.Println("minutes must be a positive integer")
		return 0, false
	}
	return minutes, true
}

func printHelp() {
	fmt.Println(`commands:
  start [task-id]   begin a work session
  pause / resume    suspend or continue the countdown
  done / abandon    stop the session as completed or abandoned
  reset             force the timer back to idle
  status            show the countdown
  history           list past sessions
  work <minutes>    set the work duration
  break <minutes>   set the break duration
  link <task-id>    link upcoming sessions to a task
  unlink            clear the linked task
  task add|list|done
  quit`)
}
