package lower

import (
	"fmt"

	"github.com/rustplc/compiler/ast"
	"github.com/rustplc/compiler/ir"
)

// pendingGoto is an edge whose target is a task name, resolved to that
// task's entry state only after every task has been given one - tasks
// may reference each other in any order (spin_a/spin_b goto each
// other), so a single forward pass cannot resolve targets as it goes.
type pendingGoto struct {
	from       string
	targetTask string
	kind       ir.TransitionKind
	guard      *ast.StateExpr
	durationMS uint32
	loc        ast.Location
}

// openTail is a state whose forward edge has not been wired yet: the
// next state in the same chain, the state after a parallel join, or
// the task's completion state, depending on what the caller decides
// follows it. kind/guard carry over to whichever edge eventually gets
// created (a wait's satisfied-edge keeps its guard even when it turns
// out to end a parallel branch, joining rather than continuing the
// outer sequence).
type openTail struct {
	state string
	kind  ir.TransitionKind
	guard *ast.StateExpr
}

// lowerTasks desugars every task's step sequence into ir.State nodes,
// chaining steps in order and expanding parallel/race constructs into
// synthetic fork/join/branch states. Every task additionally gets a
// synthetic "<task>.__done__" state with no outgoing edges, which its
// final tail wires to unless on_complete names a goto target - this
// is what makes `on_complete: unreachable` a checkable claim rather
// than a special case: Liveness simply asks whether __done__ is
// reachable.
func (l *lowerer) lowerTasks(decls []ast.TaskDecl) {
	var pending []pendingGoto
	seenTask := make(map[string]ast.Location)

	for _, td := range decls {
		if prev, dup := seenTask[td.Name]; dup {
			l.errorf(td.Loc, fmt.Sprintf("task %q declared more than once", td.Name),
				fmt.Sprintf("first declared at %s", prev), "rename one of the tasks")
			continue
		}
		seenTask[td.Name] = td.Loc

		tl := &taskLowerer{lowerer: l, task: td.Name, pending: &pending}
		task := &ir.Task{Name: td.Name, Loc: td.Loc}

		done := td.Name + ".__done__"
		tl.machine.AddState(&ir.State{Name: done, Task: td.Name, Loc: td.Loc})
		tl.allStates = append(tl.allStates, done)

		if len(td.Steps) > 0 {
			task.EntryState = tl.stateName(td.Steps[0].Name)
		} else {
			task.EntryState = done
		}

		tail := tl.lowerSteps(td.Steps, "")

		if td.OnComplete != nil {
			task.ClaimsUnreachable = td.OnComplete.Unreachable
			task.OnCompleteTarget = td.OnComplete.GotoTask
		}
		if td.OnComplete != nil && !td.OnComplete.Unreachable && td.OnComplete.GotoTask != "" {
			for _, t := range tail {
				pending = append(pending, pendingGoto{from: t.state, targetTask: td.OnComplete.GotoTask, kind: t.kind, guard: t.guard, loc: td.OnComplete.Loc})
			}
		} else {
			for _, t := range tail {
				tl.machine.States[t.state].Outgoing = append(tl.machine.States[t.state].Outgoing, ir.Transition{Target: done, Kind: t.kind, Guard: t.guard, Loc: td.Loc})
			}
		}

		task.States = tl.allStates
		l.machine.AddTask(task)
	}

	l.resolvePendingGotos(pending)
}

// taskLowerer holds the per-task desugaring state: a counter for
// synthetic state names and the running list of every state created.
type taskLowerer struct {
	*lowerer
	task         string
	synthCounter int
	pending      *[]pendingGoto
	allStates    []string
}

func (tl *taskLowerer) stateName(step string) string {
	return tl.task + "." + step
}

func (tl *taskLowerer) synthName(kind string) string {
	tl.synthCounter++
	return fmt.Sprintf("%s.%s#%d", tl.task, kind, tl.synthCounter)
}

// lowerSteps lowers a step sequence, chaining each step to the next,
// and returns the open tails still needing to be wired to whatever
// follows this sequence - the caller's next step, a parallel join, or
// the task's completion state. prefix namespaces branch step names so
// parallel/race branches never collide with the outer task's own step
// names or each other's.
func (tl *taskLowerer) lowerSteps(steps []ast.StepDecl, prefix string) []openTail {
	var tail []openTail
	for _, step := range steps {
		name := tl.task + "." + prefix + step.Name
		st := &ir.State{Name: name, Task: tl.task, Loc: step.Loc, AllowIndefiniteWait: step.AllowIndefiniteWait}
		for _, a := range step.Actions {
			st.Actions = append(st.Actions, ir.Action{Verb: a.Verb, Target: a.Target, State: a.State, Text: a.Text, Loc: a.Loc})
		}
		tl.machine.AddState(st)
		tl.allStates = append(tl.allStates, name)

		// Wire the previous step's open tails to this new state.
		for _, t := range tail {
			tl.machine.States[t.state].Outgoing = append(tl.machine.States[t.state].Outgoing, ir.Transition{Target: name, Kind: t.kind, Guard: t.guard, Loc: step.Loc})
		}
		tail = nil

		switch {
		case step.Wait != nil:
			w := step.Wait
			tl.validateStateExpr(w.Cond)
			tail = append(tail, openTail{state: name, kind: ir.TransWaitSatisfied, guard: &w.Cond})
			if w.Timeout != nil {
				*tl.pending = append(*tl.pending, pendingGoto{from: name, targetTask: w.Timeout.GotoTask, kind: ir.TransTimeout, durationMS: w.Timeout.MS, loc: w.Timeout.Loc})
			}
			// No timeout and no allow_indefinite_wait: Liveness (not
			// lowering) is responsible for the diagnostic, per spec
			// invariant 3 - it sees AllowIndefiniteWait on the state.

		case step.Parallel != nil:
			join := tl.lowerParallel(st, step.Parallel, prefix)
			tail = append(tail, openTail{state: join, kind: ir.TransJoin})

		case step.Race != nil:
			tl.lowerRace(st, step.Race)

		case step.Goto != "":
			*tl.pending = append(*tl.pending, pendingGoto{from: name, targetTask: step.Goto, kind: ir.TransGoto, loc: step.Loc})

		default:
			// Plain action step: falls through to whatever follows.
			tail = append(tail, openTail{state: name, kind: ir.TransImmediate})
		}
	}
	return tail
}

// lowerParallel expands a parallel block into a fork state (whose
// outgoing edges enter each branch) and a join state (entered once a
// branch's own chain ends), returning the join state's name so the
// caller can wire it onward exactly like any other tail state.
func (tl *taskLowerer) lowerParallel(fork *ir.State, p *ast.ParallelDecl, prefix string) string {
	join := tl.synthName("join")
	tl.machine.AddState(&ir.State{Name: join, Task: tl.task, Loc: p.Loc, JoinArity: len(p.Branches)})
	tl.allStates = append(tl.allStates, join)

	branchPrefixBase := prefix + fork.Name[len(tl.task)+1:] + ".branch."
	for _, branch := range p.Branches {
		branchPrefix := branchPrefixBase + branch.Name + "."
		first := tl.task + "." + branchPrefix + branch.Steps[0].Name
		fork.Outgoing = append(fork.Outgoing, ir.Transition{Target: first, Kind: ir.TransFork, Loc: branch.Loc})

		tail := tl.lowerSteps(branch.Steps, branchPrefix)
		for _, t := range tail {
			tl.machine.States[t.state].Outgoing = append(tl.machine.States[t.state].Outgoing, ir.Transition{Target: join, Kind: t.kind, Guard: t.guard, Loc: branch.Loc})
		}
	}

	return join
}

func (tl *taskLowerer) lowerRace(st *ir.State, r *ast.RaceDecl) {
	for _, b := range r.Branches {
		guard := b.Wait.Cond
		tl.validateStateExpr(guard)
		*tl.pending = append(*tl.pending, pendingGoto{from: st.Name, targetTask: b.Then, kind: ir.TransRaceBranch, guard: &guard, loc: b.Loc})
	}
	if r.Timeout != nil {
		*tl.pending = append(*tl.pending, pendingGoto{from: st.Name, targetTask: r.Timeout.GotoTask, kind: ir.TransTimeout, durationMS: r.Timeout.MS, loc: r.Timeout.Loc})
	}
}

// resolvePendingGotos resolves every task-name-valued edge recorded
// during desugaring into a transition targeting that task's entry
// state, reporting a semantic error for any task name that was never
// declared.
func (l *lowerer) resolvePendingGotos(pending []pendingGoto) {
	for _, pg := range pending {
		target, ok := l.machine.Tasks[pg.targetTask]
		if !ok {
			l.errorf(pg.loc, fmt.Sprintf("goto target %q is not a declared task", pg.targetTask),
				"goto/on_complete/timeout targets must name a task declared in [tasks]",
				fmt.Sprintf("declare task %q or fix the typo", pg.targetTask))
			continue
		}
		from := l.machine.States[pg.from]
		from.Outgoing = append(from.Outgoing, ir.Transition{
			Target:     target.EntryState,
			Kind:       pg.kind,
			Guard:      pg.guard,
			DurationMS: pg.durationMS,
			Loc:        pg.loc,
		})
	}
}
