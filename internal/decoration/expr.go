package decoration

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// evalTimeout bounds a single expression.
const evalTimeout = 100 * time.Millisecond

// Evaluator computes coordinate expressions over w and h. Compiled
// programs are cached by source.
type Evaluator struct {
	vm       *goja.Runtime
	programs map[string]*goja.Program
}

// NewEvaluator creates an evaluator with its own runtime.
func NewEvaluator() *Evaluator {
	vm := goja.New()
	_ = vm.Set("idiv", func(a, b float64) float64 {
		return math.Floor(a / b)
	})
	return &Evaluator{vm: vm, programs: make(map[string]*goja.Program)}
}

// Eval evaluates expr with the given screen size and rounds the result
// toward negative infinity.
func (e *Evaluator) Eval(expr string, w, h int) (int, error) {
	prog, err := e.compile(expr)
	if err != nil {
		return 0, err
	}
	_ = e.vm.Set("w", w)
	_ = e.vm.Set("h", h)

	timer := time.AfterFunc(evalTimeout, func() {
		e.vm.Interrupt("timeout")
	})
	defer func() {
		timer.Stop()
		e.vm.ClearInterrupt()
	}()

	v, err := e.vm.RunProgram(prog)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrExpression, expr, err)
	}
	f := v.ToFloat()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s is not finite", ErrExpression, expr)
	}
	return int(math.Floor(f)), nil
}

// EvalAll evaluates each expression.
func (e *Evaluator) EvalAll(exprs []string, w, h int) ([]int, error) {
	out := make([]int, len(exprs))
	for i, x := range exprs {
		n, err := e.Eval(x, w, h)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (e *Evaluator) compile(expr string) (*goja.Program, error) {
	if p, ok := e.programs[expr]; ok {
		return p, nil
	}
	src := strings.TrimSpace(expr)
	if src == "" {
		return nil, fmt.Errorf("%w: empty", ErrExpression)
	}
	p, err := goja.Compile("", "("+floorDiv(src)+")", true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExpression, expr, err)
	}
	e.programs[expr] = p
	return p, nil
}

// floorDiv rewrites a//b as idiv(a, b), since // opens a comment in
// JavaScript. Operands are identifiers, numbers, calls or parenthesized
// groups; the left operand extends over a chain of *, / and %, which bind
// as tightly as //.
func floorDiv(s string) string {
	for {
		i := strings.Index(s, "//")
		if i < 0 {
			return s
		}
		ls := leftOperand(s, i)
		re := rightOperand(s, i+2)
		s = s[:ls] + "idiv(" + strings.TrimSpace(s[ls:i]) + "," + strings.TrimSpace(s[i+2:re]) + ")" + s[re:]
	}
}

func isWord(c byte) bool {
	return c == '_' || c == '.' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// leftOperand returns the start of the operand ending before s[end].
func leftOperand(s string, end int) int {
	j := end - 1
	for {
		for j >= 0 && s[j] == ' ' {
			j--
		}
		if j >= 0 && s[j] == ')' {
			depth := 0
			for ; j >= 0; j-- {
				if s[j] == ')' {
					depth++
				} else if s[j] == '(' {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			j--
		}
		for j >= 0 && isWord(s[j]) {
			j--
		}
		start := j + 1
		k := j
		for k >= 0 && s[k] == ' ' {
			k--
		}
		if k >= 0 && (s[k] == '*' || s[k] == '/' || s[k] == '%') {
			j = k - 1
			continue
		}
		return start
	}
}

// rightOperand returns the end of the operand starting at s[start].
func rightOperand(s string, start int) int {
	j := start
	for j < len(s) && s[j] == ' ' {
		j++
	}
	if j < len(s) && (s[j] == '-' || s[j] == '+') {
		j++
	}
	for j < len(s) && isWord(s[j]) {
		j++
	}
	if j < len(s) && s[j] == '(' {
		depth := 0
		for ; j < len(s); j++ {
			if s[j] == '(' {
				depth++
			} else if s[j] == ')' {
				depth--
				if depth == 0 {
					j++
					break
				}
			}
		}
	}
	return j
}
