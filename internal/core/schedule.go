package core

import (
	"fmt"
	"math"
	"sort"
	"time"
)

var farFutureDate = time.Date(9999, 12, 31, 0, 0, 0, 0, time.Local)

func sortedTaskIDs(tasks map[TaskID]*Task) []TaskID {
	ids := make([]TaskID, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].id.String() < ids[j].id.String() })
	return ids
}

// buildRevGraph inverts each task's blocking-task list into dep -> []dependent.
func buildRevGraph(tasks map[TaskID]*Task) map[TaskID][]TaskID {
	rev := make(map[TaskID][]TaskID)
	for _, id := range sortedTaskIDs(tasks) {
		task := tasks[id]
		if task.status.Kind != StatusBlocked {
			continue
		}
		for _, dep := range task.status.Blocked.Tasks {
			rev[dep] = append(rev[dep], id)
		}
	}
	return rev
}

// computeDependentsMap counts, for each task, how many tasks transitively
// depend on it (directly or through a chain of blocking relationships). A
// dependency cycle is reported as a StateError rather than silently
// truncated, unlike a memo-placeholder approach that would just count zero
// for the repeated node.
func computeDependentsMap(tasks map[TaskID]*Task, rev map[TaskID][]TaskID) (map[TaskID]int, error) {
	memo := make(map[TaskID]map[TaskID]struct{})
	inProgress := make(map[TaskID]bool)

	var dfs func(id TaskID) (map[TaskID]struct{}, error)
	dfs = func(id TaskID) (map[TaskID]struct{}, error) {
		if cached, ok := memo[id]; ok {
			return cached, nil
		}
		if inProgress[id] {
			return nil, &StateError{Reason: fmt.Sprintf("dependency cycle detected at task %s", id)}
		}
		inProgress[id] = true
		all := make(map[TaskID]struct{})
		for _, child := range rev[id] {
			all[child] = struct{}{}
			sub, err := dfs(child)
			if err != nil {
				return nil, err
			}
			for k := range sub {
				all[k] = struct{}{}
			}
		}
		delete(inProgress, id)
		memo[id] = all
		return all, nil
	}

	result := make(map[TaskID]int, len(tasks))
	for _, id := range sortedTaskIDs(tasks) {
		deps, err := dfs(id)
		if err != nil {
			return nil, err
		}
		result[id] = len(deps)
	}
	return result, nil
}

// computeEarliestStartMap computes, for every task, the earliest instant
// work could begin on it: now, pushed later by any unresolved external
// blocker and by the projected finish time of every blocking task. As with
// computeDependentsMap, a cycle in the blocking-task graph is reported as a
// StateError instead of silently resolving to `now`.
func computeEarliestStartMap(
	tasks map[TaskID]*Task,
	calendar *Calendar,
	now time.Time,
	defaultTime ClockTime,
	workTick, buffer time.Duration,
) (map[TaskID]time.Time, error) {
	memo := make(map[TaskID]time.Time)
	inProgress := make(map[TaskID]bool)

	var dfs func(id TaskID) (time.Time, error)
	dfs = func(id TaskID) (time.Time, error) {
		if t, ok := memo[id]; ok {
			return t, nil
		}
		if inProgress[id] {
			return time.Time{}, &StateError{Reason: fmt.Sprintf("dependency cycle detected at task %s", id)}
		}
		inProgress[id] = true

		task := tasks[id]
		earliest := now
		if task.status.Kind == StatusBlocked {
			for _, ext := range task.status.Blocked.Externals {
				t, ok, err := ext.MayUnblockAt.ResolveWithCalendar(calendar, defaultTime)
				if err != nil {
					delete(inProgress, id)
					return time.Time{}, err
				}
				if ok && t.After(earliest) {
					earliest = t
				}
			}
			for _, depID := range task.status.Blocked.Tasks {
				depTask := tasks[depID]
				var unblock time.Time
				if depTask.IsCompleted() {
					unblock = depTask.status.CompletedAt
				} else {
					depStart, err := dfs(depID)
					if err != nil {
						delete(inProgress, id)
						return time.Time{}, err
					}
					unblock = projectFinish(depStart, depTask.Remaining(), calendar, workTick, buffer)
				}
				if unblock.After(earliest) {
					earliest = unblock
				}
			}
		}

		delete(inProgress, id)
		memo[id] = earliest
		return earliest, nil
	}

	result := make(map[TaskID]time.Time, len(tasks))
	for _, id := range sortedTaskIDs(tasks) {
		t, err := dfs(id)
		if err != nil {
			return nil, err
		}
		result[id] = t
	}
	return result, nil
}

// computeLatestStartMap computes, for every task, the latest instant it
// could start. A task with a resolvable deadline is placed against that
// deadline only; its dependents are not consulted. A task without one is
// placed against the earliest latest-start among its direct dependents,
// which in turn propagate their own dependents' bounds. Tasks with neither
// a deadline nor any dependent fall back to the last available window the
// calendar knows about.
func computeLatestStartMap(
	tasks map[TaskID]*Task,
	rev map[TaskID][]TaskID,
	calendar *Calendar,
	defaultTime ClockTime,
	workTick, buffer time.Duration,
) (map[TaskID]time.Time, error) {
	latest := make(map[TaskID]time.Time)

	for _, id := range sortedTaskIDs(tasks) {
		task := tasks[id]
		dl, ok, err := task.Deadline.ResolveWithCalendar(calendar, defaultTime)
		if err != nil {
			return nil, err
		}
		if ok {
			latest[id] = projectStartBefore(dl, task.Remaining(), calendar, workTick, buffer)
		}
	}

	inProgress := make(map[TaskID]bool)
	var dfs func(id TaskID) error
	dfs = func(id TaskID) error {
		if _, ok := latest[id]; ok {
			return nil
		}
		if inProgress[id] {
			return &StateError{Reason: fmt.Sprintf("dependency cycle detected at task %s", id)}
		}
		inProgress[id] = true
		defer delete(inProgress, id)

		children := rev[id]
		if len(children) > 0 {
			for _, ch := range children {
				if err := dfs(ch); err != nil {
					return err
				}
			}
			var minChild time.Time
			found := false
			for _, ch := range children {
				t, ok := latest[ch]
				if ok && (!found || t.Before(minChild)) {
					minChild = t
					found = true
				}
			}
			latest[id] = projectStartBefore(minChild, tasks[id].Remaining(), calendar, workTick, buffer)
			return nil
		}

		windows := calendar.TimeWindowsRev(farFutureDate)
		var last TimeWindow
		foundWindow := false
		for _, w := range windows {
			if w.IsAvailable() {
				last = w
				foundWindow = true
				break
			}
		}
		if foundWindow {
			latest[id] = last.EndDateTime().Add(-tasks[id].Remaining())
		} else {
			latest[id] = farFutureDate.Add(-tasks[id].Remaining())
		}
		return nil
	}

	for _, id := range sortedTaskIDs(tasks) {
		if err := dfs(id); err != nil {
			return nil, err
		}
	}
	return latest, nil
}

// projectFinish walks the calendar's available windows forward from start,
// consuming remaining work in workTick-sized ticks separated by buffer, and
// returns the resulting finish instant.
func projectFinish(start time.Time, remaining time.Duration, calendar *Calendar, workTick, buffer time.Duration) time.Time {
	for _, w := range calendar.TimeWindows(start) {
		if !w.IsAvailable() {
			continue
		}
		cursor := w.StartDateTime()
		if start.After(cursor) {
			cursor = start
		}
		end := w.EndDateTime()

		for cursor.Before(end) && remaining > 0 {
			slot := end.Sub(cursor)
			if workTick < slot {
				slot = workTick
			}
			work := slot
			if remaining < work {
				work = remaining
			}
			cursor = cursor.Add(work)
			remaining -= work
			cursor = cursor.Add(buffer)
		}

		if remaining <= 0 {
			return cursor.Add(-buffer)
		}
	}
	return start.Add(remaining)
}

// projectStartBefore is the reverse of projectFinish: it walks the
// calendar's available windows backward from finish and returns the latest
// instant work could start and still finish by then.
func projectStartBefore(finish time.Time, remaining time.Duration, calendar *Calendar, workTick, buffer time.Duration) time.Time {
	cursor := finish
	for _, w := range calendar.TimeWindowsRev(finish) {
		if !w.IsAvailable() {
			continue
		}
		winStart := w.StartDateTime()
		winEnd := w.EndDateTime()
		if cursor.Before(winEnd) {
			winEnd = cursor
		}
		t := winEnd

		for t.After(winStart) && remaining > 0 {
			slot := t.Sub(winStart)
			if workTick < slot {
				slot = workTick
			}
			work := slot
			if remaining < work {
				work = remaining
			}
			t = t.Add(-(work + buffer))
			remaining -= work
		}

		if remaining <= 0 {
			return t.Add(buffer)
		}
		cursor = winStart
	}
	return finish.Add(-remaining)
}

// scheduleContext holds every precomputed map a scheduling pass needs, built
// once up front so the allocation loop only does arithmetic.
type scheduleContext struct {
	dailyMinutes     float64
	tasks            map[TaskID]*Task
	ids              []TaskID
	calendar         *Calendar
	earliest         map[TaskID]time.Time
	latest           map[TaskID]time.Time
	revGraph         map[TaskID][]TaskID
	depMap           map[TaskID]int
	maxDep           float64
	riskMap          map[TaskID][2]float64
	slots            *SlotMap
	remainingMinutes map[TaskID]int64
}

func computeNeedDaysMap(tasks map[TaskID]*Task, ids []TaskID, dailyMinutes float64) map[TaskID]float64 {
	need := make(map[TaskID]float64, len(ids))
	for _, id := range ids {
		rem := tasks[id].Remaining().Minutes()
		if rem <= 0 {
			need[id] = 0
			continue
		}
		need[id] = rem / dailyMinutes
	}
	return need
}

// effectiveScheduleStart clamps now to the start of the first official
// workday on or after now's date, discarding now's own time-of-day.
func effectiveScheduleStart(now time.Time, calendar *Calendar, workStart ClockTime) time.Time {
	day := civilDate(now)
	if days := calendar.OfficialWorkdays(now); len(days) > 0 {
		day = days[0]
	}
	return workStart.atDate(day)
}

func buildScheduleContext(
	now time.Time,
	tasks map[TaskID]*Task,
	calendar *Calendar,
	workStart, workEnd ClockTime,
	workTick, buffer time.Duration,
) (*scheduleContext, error) {
	ids := sortedTaskIDs(tasks)
	dailyMinutes := workEnd.Sub(workStart).Minutes()
	effNow := effectiveScheduleStart(now, calendar, workStart)

	need := computeNeedDaysMap(tasks, ids, dailyMinutes)
	revGraph := buildRevGraph(tasks)

	earliest, err := computeEarliestStartMap(tasks, calendar, effNow, workStart, workTick, buffer)
	if err != nil {
		return nil, err
	}
	latest, err := computeLatestStartMap(tasks, revGraph, calendar, workStart, workTick, buffer)
	if err != nil {
		return nil, err
	}
	depMap, err := computeDependentsMap(tasks, revGraph)
	if err != nil {
		return nil, err
	}

	maxDep := 1.0
	for _, d := range depMap {
		if float64(d) > maxDep {
			maxDep = float64(d)
		}
	}

	riskMap := make(map[TaskID][2]float64, len(ids))
	for _, id := range ids {
		if est := tasks[id].Estimate(); est != nil {
			riskMap[id] = [2]float64{est.Mean().Minutes(), est.StdDev().Minutes()}
		} else {
			riskMap[id] = [2]float64{0, 0}
		}
	}

	remainingMinutes := make(map[TaskID]int64, len(ids))
	for _, id := range ids {
		remainingMinutes[id] = int64(math.Ceil(need[id] * dailyMinutes))
	}

	return &scheduleContext{
		dailyMinutes:     dailyMinutes,
		tasks:            tasks,
		ids:              ids,
		calendar:         calendar,
		earliest:         earliest,
		latest:           latest,
		revGraph:         revGraph,
		depMap:           depMap,
		maxDep:           maxDep,
		riskMap:          riskMap,
		slots:            NewSlotMap(),
		remainingMinutes: remainingMinutes,
	}, nil
}

func (ctx *scheduleContext) calcSlack(id TaskID, cursor time.Time) float64 {
	return ctx.latest[id].Sub(cursor).Minutes() / ctx.dailyMinutes
}

func (ctx *scheduleContext) calcMaxSlackOn(cursor time.Time) float64 {
	maxSlack := 1.0
	for _, id := range ctx.ids {
		if ctx.remainingMinutes[id] <= 0 || ctx.earliest[id].After(cursor) {
			continue
		}
		if s := ctx.calcSlack(id, cursor); s > maxSlack {
			maxSlack = s
		}
	}
	return maxSlack
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// calcPriorityScore returns (urgency, weighted) for id at cursor. urgency
// rises as slack shrinks relative to the most slack any allocatable task
// currently has; weighted blends estimate risk (70%) with how many tasks
// transitively depend on this one (30%). Scores compare lexicographically:
// urgency first, weighted as the tiebreaker.
func (ctx *scheduleContext) calcPriorityScore(id TaskID, cursor time.Time, maxSlack float64) [2]float64 {
	dScore := float64(ctx.depMap[id]) / ctx.maxDep
	risk := ctx.riskMap[id]
	rScore := 0.0
	if risk[0] > 0 {
		rScore = risk[1] / risk[0]
	}
	slack := ctx.calcSlack(id, cursor)
	urgency := clamp(1.0-slack/maxSlack, 0.001, 1.0)
	return [2]float64{urgency, 0.7*rScore + 0.3*dScore}
}

func scoreGreater(a, b [2]float64) bool {
	if a[0] != b[0] {
		return a[0] > b[0]
	}
	return a[1] > b[1]
}

func (ctx *scheduleContext) allocate(id TaskID, workTick time.Duration, cursor time.Time, capacity time.Duration) time.Duration {
	alloc := time.Duration(ctx.remainingMinutes[id]) * time.Minute
	if alloc > workTick {
		alloc = workTick
	}
	if alloc > capacity {
		alloc = capacity
	}
	ctx.slots.Add(civilDate(cursor), id, alloc)
	remaining := ctx.remainingMinutes[id] - int64(alloc.Minutes())
	if remaining < 0 {
		remaining = 0
	}
	ctx.remainingMinutes[id] = remaining
	return alloc
}

func (ctx *scheduleContext) findFirstAllocatableTime(from, to time.Time) (time.Time, bool) {
	var best time.Time
	found := false
	for _, id := range ctx.ids {
		if ctx.remainingMinutes[id] <= 0 {
			continue
		}
		t := ctx.earliest[id]
		if !t.After(from) || !t.Before(to) {
			continue
		}
		if !found || t.Before(best) {
			best = t
			found = true
		}
	}
	return best, found
}

// Scheduler greedily allocates every task's remaining work into the
// calendar's available windows, dynamically re-ranking by priority at every
// allocation tick.
type Scheduler struct {
	WorkTick   time.Duration
	BufferTime time.Duration
	WorkStart  ClockTime
	WorkEnd    ClockTime
}

// Schedule computes a SlotMap assigning every task's remaining work (as
// given by Task.Remaining) to a civil date, honoring dependencies, external
// blockers, deadlines and estimate-derived risk. Tasks are not filtered by
// status: a Dropped task whose Remaining is still positive is allocated
// too. A dependency cycle among blocking tasks is reported as a StateError.
func (s *Scheduler) Schedule(now time.Time, tasks map[TaskID]*Task, calendar *Calendar) (*SlotMap, error) {
	ctx, err := buildScheduleContext(now, tasks, calendar, s.WorkStart, s.WorkEnd, s.WorkTick, s.BufferTime)
	if err != nil {
		return nil, err
	}

	for _, w := range calendar.TimeWindows(now) {
		if !w.IsAvailable() {
			continue
		}
		cursor := w.StartDateTime()
		capacity := w.Duration()

		for capacity > 0 {
			maxSlack := ctx.calcMaxSlackOn(cursor)

			var bestID TaskID
			var bestScore [2]float64
			found := false
			for _, id := range ctx.ids {
				if ctx.remainingMinutes[id] <= 0 || ctx.earliest[id].After(cursor) {
					continue
				}
				score := ctx.calcPriorityScore(id, cursor, maxSlack)
				if !found || scoreGreater(score, bestScore) {
					bestScore = score
					bestID = id
					found = true
				}
			}

			if found {
				alloc := ctx.allocate(bestID, s.WorkTick, cursor, capacity)
				consumed := alloc + s.BufferTime
				capacity -= consumed
				cursor = cursor.Add(consumed)
				continue
			}

			if t, ok := ctx.findFirstAllocatableTime(cursor, w.EndDateTime()); ok {
				cursor = t
				capacity = w.EndDateTime().Sub(cursor)
				continue
			}
			break
		}
	}

	return ctx.slots, nil
}
