package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/peterh/liner"

	"github.com/sunholo/ailang/internal/ast"
	"github.com/sunholo/ailang/internal/bytecode"
	"github.com/sunholo/ailang/internal/config"
	"github.com/sunholo/ailang/internal/heap"
	"github.com/sunholo/ailang/internal/lexer"
	"github.com/sunholo/ailang/internal/parser"
	"github.com/sunholo/ailang/internal/process"
	"github.com/sunholo/ailang/internal/vm"
)

// runRepl reads expressions line by line, lowers each one to a small
// compiled-code block, and executes it on a fresh process. Only integer
// arithmetic/comparison, negation, if/else, and integer, boolean and
// string literals are supported; it exists to poke at
// the instruction set interactively, not to replace a compiler.
func runRepl(cfg config.Config) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), ".ownc_history")
	if f, err := os.Open(historyPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	machine := vm.New(cfg)
	fmt.Println("ownc repl; enter an expression, ctrl-d to quit")

	for {
		input, err := line.Prompt(">> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		result, err := evalLine(machine, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(result)
	}
}

// evalLine parses one expression, emits bytecode for it, and runs it.
func evalLine(machine *vm.VM, input string) (string, error) {
	p := parser.New(lexer.New(input, "<repl>"))
	file := p.ParseFile()
	if errs := p.Errors(); len(errs) > 0 {
		return "", errs[0]
	}
	if len(file.Statements) == 0 {
		return "", fmt.Errorf("not an expression")
	}
	expr, ok := file.Statements[0].(ast.Expr)
	if !ok {
		return "", fmt.Errorf("only expressions are supported here")
	}

	em := &emitter{code: &bytecode.CompiledCode{Name: "<repl>", Literals: bytecode.NewConstantCache()}}
	resultReg, err := em.emit(expr)
	if err != nil {
		return "", err
	}
	em.code.RegistersCount = em.nextReg

	proc := machine.Spawn("primary")
	ctx := process.NewExecutionContext(em.code, process.NewBinding(0, nil), heap.ObjectPointer{}, 0)
	proc.PushContext(ctx)

	outcome, runErr := machine.RunUntilSuspend(proc)
	if runErr != nil {
		return "", runErr
	}
	if outcome == vm.OutcomeThrewUnhandled {
		return "", fmt.Errorf("unhandled thrown value")
	}
	return renderValue(ctx.GetRegister(resultReg)), nil
}

func renderValue(v heap.ObjectPointer) string {
	if v.IsInteger() {
		return fmt.Sprintf("%d", v.IntegerValue())
	}
	if obj := v.Object(); obj != nil {
		return fmt.Sprintf("%v", obj.Value)
	}
	return "nil"
}

// emitter lowers the REPL's expression subset to instructions.
type emitter struct {
	code    *bytecode.CompiledCode
	nextReg int
}

func (em *emitter) reg() int {
	r := em.nextReg
	em.nextReg++
	return r
}

func (em *emitter) push(in bytecode.Instruction) {
	em.code.Instructions = append(em.code.Instructions, in)
}

func (em *emitter) emit(e ast.Expr) (int, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return em.emitLiteral(n)

	case *ast.UnaryOp:
		if n.Op != "-" {
			return 0, fmt.Errorf("unsupported unary operator %q", n.Op)
		}
		operand, err := em.emit(n.Expr)
		if err != nil {
			return 0, err
		}
		zero := em.reg()
		em.push(bytecode.Instruction{Op: bytecode.OpSetInt, Arg0: zero, Arg1: 0})
		dst := em.reg()
		em.push(bytecode.Instruction{Op: bytecode.OpIntSub, Arg0: dst, Arg1: zero, Arg2: operand})
		return dst, nil

	case *ast.BinaryOp:
		left, err := em.emit(n.Left)
		if err != nil {
			return 0, err
		}
		right, err := em.emit(n.Right)
		if err != nil {
			return 0, err
		}
		op, ok := binaryOpcode(n.Op)
		if !ok {
			return 0, fmt.Errorf("unsupported operator %q", n.Op)
		}
		dst := em.reg()
		em.push(bytecode.Instruction{Op: op, Arg0: dst, Arg1: left, Arg2: right})
		return dst, nil

	case *ast.If:
		return em.emitIf(n)

	default:
		return 0, fmt.Errorf("unsupported expression %T", e)
	}
}

func (em *emitter) emitLiteral(n *ast.Literal) (int, error) {
	dst := em.reg()
	switch n.Kind {
	case ast.IntLit:
		switch v := n.Value.(type) {
		case int:
			em.push(bytecode.Instruction{Op: bytecode.OpSetInt, Arg0: dst, Arg1: v})
		case int64:
			em.push(bytecode.Instruction{Op: bytecode.OpSetInt, Arg0: dst, Arg1: int(v)})
		default:
			return 0, fmt.Errorf("unsupported int literal %v", n.Value)
		}
	case ast.BoolLit:
		arg := 0
		if v, _ := n.Value.(bool); v {
			arg = 1
		}
		em.push(bytecode.Instruction{Op: bytecode.OpSetBool, Arg0: dst, Arg1: arg})
	case ast.StringLit:
		s, _ := n.Value.(string)
		em.push(bytecode.Instruction{Op: bytecode.OpSetString, Arg0: dst, Arg1: em.code.Literals.String(s)})
	default:
		return 0, fmt.Errorf("unsupported literal kind")
	}
	return dst, nil
}

func (em *emitter) emitIf(n *ast.If) (int, error) {
	cond, err := em.emit(n.Condition)
	if err != nil {
		return 0, err
	}
	dst := em.reg()

	jumpToElse := len(em.code.Instructions)
	em.push(bytecode.Instruction{Op: bytecode.OpGotoIfFalse, Arg0: cond})

	thenReg, err := em.emit(n.Then)
	if err != nil {
		return 0, err
	}
	em.push(bytecode.Instruction{Op: bytecode.OpMoveRegister, Arg0: dst, Arg1: thenReg})
	jumpToEnd := len(em.code.Instructions)
	em.push(bytecode.Instruction{Op: bytecode.OpGoto})

	em.code.Instructions[jumpToElse].Arg1 = len(em.code.Instructions)
	elseReg, err := em.emit(n.Else)
	if err != nil {
		return 0, err
	}
	em.push(bytecode.Instruction{Op: bytecode.OpMoveRegister, Arg0: dst, Arg1: elseReg})
	em.code.Instructions[jumpToEnd].Arg0 = len(em.code.Instructions)

	return dst, nil
}

func binaryOpcode(op string) (bytecode.Opcode, bool) {
	switch op {
	case "+":
		return bytecode.OpIntAdd, true
	case "-":
		return bytecode.OpIntSub, true
	case "*":
		return bytecode.OpIntMul, true
	case "/":
		return bytecode.OpIntDiv, true
	case "%":
		return bytecode.OpIntMod, true
	case "<":
		return bytecode.OpIntLt, true
	case ">":
		return bytecode.OpIntGt, true
	case "==":
		return bytecode.OpIntEq, true
	default:
		return 0, false
	}
}
