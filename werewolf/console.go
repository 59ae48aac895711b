package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gosuda/werewolf/werewolf/engine"
)

// consoleDriver answers every request from a line-based terminal. One
// operator plays all participants, which is how games are tried out
// without phones.
type consoleDriver struct {
	in  *bufio.Scanner
	out io.Writer
}

func newConsoleDriver(in io.Reader, out io.Writer) *consoleDriver {
	return &consoleDriver{in: bufio.NewScanner(in), out: out}
}

func (d *consoleDriver) Handle(ctx context.Context, req engine.Request) (engine.Reply, error) {
	switch req.Kind {
	case engine.KindInfo:
		d.info(req)
		return engine.Reply{}, nil
	case engine.KindYesNo:
		d.players(req.Players)
		line, err := d.ask(ctx, fmt.Sprintf("%s: %s [y/N]? ", req.To.Name(), req.Prompt))
		if err != nil {
			return engine.Reply{}, err
		}
		return engine.Reply{Yes: strings.EqualFold(line, "y")}, nil
	case engine.KindSelect:
		selected, err := d.selectFor(ctx, req, req.To)
		if err != nil {
			return engine.Reply{}, err
		}
		return engine.Reply{Selected: selected}, nil
	case engine.KindEverybodySelect:
		votes := make(map[*engine.Participant]*engine.Participant, len(req.Voters))
		for _, voter := range req.Voters {
			fmt.Fprintf(d.out, "Dear %s\n", voter.Name())
			selected, err := d.selectFor(ctx, req, voter)
			if err != nil {
				return engine.Reply{}, err
			}
			votes[voter] = selected[0]
		}
		return engine.Reply{Votes: votes}, nil
	}
	return engine.Reply{}, fmt.Errorf("console: unsupported request kind %q", req.Kind)
}

func (d *consoleDriver) info(req engine.Request) {
	prefix := ""
	if req.To != nil {
		prefix = req.To.Name() + ": "
	}
	fmt.Fprintln(d.out, prefix+req.Prompt)
	d.players(req.Players)
	for voter, target := range req.Vote {
		fmt.Fprintf(d.out, "%s voted for %s\n", voter.Name(), target.Name())
	}
}

func (d *consoleDriver) players(ps []*engine.Participant) {
	if len(ps) == 0 {
		return
	}
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name())
	}
	fmt.Fprintln(d.out, strings.Join(names, ", "))
}

func (d *consoleDriver) selectFor(ctx context.Context, req engine.Request, to *engine.Participant) ([]*engine.Participant, error) {
	n := req.N
	if req.Kind == engine.KindEverybodySelect {
		n = 1
	}
	for {
		for i, p := range req.Candidates {
			fmt.Fprintf(d.out, "%d %s\n", i, p.Name())
		}
		line, err := d.ask(ctx, fmt.Sprintf("%s: %s (select %d): ", to.Name(), req.Prompt, n))
		if err != nil {
			return nil, err
		}
		selected, err := parseSelection(line, req.Candidates)
		if err == nil {
			err = req.CheckSelection(selected)
		}
		if err == nil {
			return selected, nil
		}
		fmt.Fprintf(d.out, "Please select the correct amount of players. (%v)\n", err)
	}
}

func (d *consoleDriver) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(d.out, prompt)
	if !d.in.Scan() {
		if err := d.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(d.in.Text()), nil
}

var errBadIndex = errors.New("not a player number")

func parseSelection(line string, candidates []*engine.Participant) ([]*engine.Participant, error) {
	fields := strings.Fields(line)
	out := make([]*engine.Participant, 0, len(fields))
	for _, f := range fields {
		i, err := strconv.Atoi(f)
		if err != nil || i < 0 || i >= len(candidates) {
			return nil, fmt.Errorf("%w: %q", errBadIndex, f)
		}
		out = append(out, candidates[i])
	}
	return out, nil
}
