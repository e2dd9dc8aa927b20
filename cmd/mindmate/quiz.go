package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mindmate-app/mindmate/internal/assessment"
	"github.com/mindmate-app/mindmate/internal/models"
)

var errQuizAborted = errors.New("quiz aborted")

const quizHelp = "enter an option number, n for next, p for previous, r to restart, q to quit"

// runQuiz drives one attempt from the terminal and prints the result.
// Restarting after completion begins a fresh attempt of the same quiz.
func runQuiz(in *bufio.Reader, out io.Writer, quiz models.Quiz, role models.Role) error {
	attempt := assessment.NewAttempt()
	if err := attempt.Start(quiz); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n", quiz.Title)
	if quiz.Description != "" {
		fmt.Fprintf(out, "%s\n", quiz.Description)
	}
	fmt.Fprintf(out, "%d questions, about %d min. %s\n", len(quiz.Questions), assessment.EstimatedMinutes(&quiz), quizHelp)

	for {
		if attempt.Status() == assessment.Completed {
			result, _ := attempt.Result()
			printResult(out, result, role)

			fmt.Fprint(out, "\nr to retake, anything else to finish: ")
			line, err := readLine(in)
			if err != nil || line != "r" {
				return nil
			}
			attempt.Reset()
			if err := attempt.Start(quiz); err != nil {
				return err
			}
			continue
		}

		printQuestion(out, attempt)

		line, err := readLine(in)
		if err != nil {
			return errQuizAborted
		}

		switch line {
		case "q":
			return errQuizAborted
		case "p":
			attempt.Previous()
		case "r":
			attempt.Reset()
			if err := attempt.Start(quiz); err != nil {
				return err
			}
		case "n", "":
			if err := attempt.Next(); errors.Is(err, assessment.ErrUnanswered) {
				fmt.Fprintln(out, "Please select an answer before continuing.")
			} else if err != nil {
				return err
			}
		default:
			question, _ := attempt.Current()
			n, err := strconv.Atoi(line)
			if err != nil || n < 1 || n > len(question.Options) {
				fmt.Fprintln(out, quizHelp)
				continue
			}
			if err := attempt.AnswerCurrent(question.Options[n-1]); err != nil {
				return err
			}
		}
	}
}

func printQuestion(out io.Writer, attempt *assessment.Attempt) {
	question, _ := attempt.Current()
	idx := attempt.CurrentIndex()
	selected, _ := attempt.Selected(idx)

	fmt.Fprintf(out, "\nQuestion %d of %d (%.0f%%)\n%s\n",
		idx+1, len(attempt.Quiz().Questions), attempt.Progress(), question.Question)
	for i, opt := range question.Options {
		marker := " "
		if opt == selected {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %d) %s\n", marker, i+1, opt)
	}

	next := "next"
	if attempt.IsLast() {
		next = "finish"
	}
	fmt.Fprintf(out, "> [n=%s] ", next)
}

func printResult(out io.Writer, r assessment.Result, role models.Role) {
	fmt.Fprintf(out, "\nYour result: %s (%d%%)\n", r.Level, r.Percentage)
	fmt.Fprintf(out, "Score %d of %d\n%s\n", r.Score, r.MaxScore, r.Description)
	fmt.Fprintln(out, "Recommendations:")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(out, "  - %s\n", rec)
	}
	if r.SuggestsSupport() && role == models.RoleStudent {
		fmt.Fprintln(out, "Talking to a counsellor could help. Book a session from /booking.")
	}
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}
