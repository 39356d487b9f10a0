package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/xplshn/glc/pkg/ast"
	"github.com/xplshn/glc/pkg/config"
	"github.com/xplshn/glc/pkg/util"
)

// handler describes one catch clause or one finally clause of an active
// try statement. Exactly one variant is set: catch handlers carry a target
// block and a resolved class type, finally handlers carry the cleanup body
// that is re-lowered on every unwind pass through the scope.
type handler struct {
	// catch variant
	target    *ir.Block
	catchType *ast.Type

	// finally variant
	finallyBody *ast.Node
}

func (h *handler) isFinally() bool { return h.finallyBody != nil }

// landingPad is the per-function exception scope stack. Handlers live in a
// flat append-only list; each push records a truncation checkpoint so pop
// can restore the enclosing scope exactly. The list is ordered so that
// later entries belong to more deeply nested scopes, and within one scope
// the most recently declared catch comes first (staged clauses are spliced
// in reverse), so one backwards walk visits handlers innermost scope first
// and in declaration order within a scope.
type landingPad struct {
	infos       []handler
	staged      []handler
	checkpoints []int
	padBlocks   []*ir.Block

	// catchVar is the shared exception storage slot, created lazily and
	// reused by every catch whose bound variable has no nested references.
	catchVar *ir.InstAlloca
}

func (p *landingPad) depth() int { return len(p.padBlocks) }

// get returns the block exception-raising calls must use as their unwind
// target, or nil when no protection is active.
func (p *landingPad) get() *ir.Block {
	if len(p.padBlocks) == 0 {
		return nil
	}
	return p.padBlocks[len(p.padBlocks)-1]
}

// addCatch stages a catch clause for the try statement currently being
// lowered and generates its handler body into a fresh target block that
// falls through to end.
func (p *landingPad) addCatch(c *Context, clause *ast.CatchClause, end *ir.Block) {
	if clause.Class == nil || !clause.Class.IsClass() {
		util.ICE("catch clause staged without a resolved class type")
	}

	target := c.newBlock("catch")
	saved := c.block
	c.block = target
	c.pushScope()

	if clause.Var != nil {
		vd := clause.Var.Data.(ast.VarDeclNode)
		varLow := lltypes.I8Ptr // class values are object pointers
		var addr value.Value
		if vd.NestedRefs == 0 && c.cfg.IsFeatureEnabled(config.FeatSharedEHStorage) {
			// use the same storage for all exceptions that are not
			// accessed in nested functions
			addr = c.bitcast(p.getExceptionStorage(c), lltypes.NewPointer(varLow))
		} else {
			// independent, stable-address storage: copy the captured
			// exception out of the shared slot
			own := c.block.NewAlloca(varLow)
			own.SetName(vd.Name)
			exc := c.block.NewLoad(lltypes.I8Ptr, p.getExceptionStorage(c))
			c.block.NewStore(c.bitcast(exc, varLow), own)
			addr = own
		}
		c.declare(vd.Name, clause.Class, addr)
	}

	if clause.Body != nil {
		c.genStmt(clause.Body)
	}
	if !c.terminated() {
		c.block.NewBr(end)
	}

	c.popScope()
	c.block = saved
	p.staged = append(p.staged, handler{target: target, catchType: clause.Class})
}

// addFinally stages the single finally clause of the try statement
// currently being lowered. The body is not generated here: it is re-lowered
// once per unwind pass that reaches it.
func (p *landingPad) addFinally(body *ast.Node) {
	p.staged = append(p.staged, handler{finallyBody: body})
}

// push splices the staged handlers onto the live list, records the
// truncation checkpoint, builds the dispatch code inside inBB and makes
// inBB the current unwind target. Staged entries are appended in reverse
// declaration order; see the landingPad comment for why.
func (p *landingPad) push(c *Context, inBB *ir.Block) {
	p.checkpoints = append(p.checkpoints, len(p.infos))
	for i := len(p.staged) - 1; i >= 0; i-- {
		p.infos = append(p.infos, p.staged[i])
	}
	p.staged = p.staged[:0]

	// the pad block is registered as unwind target only after
	// construction: calls emitted while replaying finally bodies must
	// unwind to the enclosing scope, not to the pad being built
	p.construct(c, inBB)
	p.padBlocks = append(p.padBlocks, inBB)
}

// pop discards the current unwind target and truncates the handler list to
// the length recorded by the matching push.
func (p *landingPad) pop() {
	if len(p.padBlocks) == 0 || len(p.checkpoints) == 0 {
		util.ICE("exception scope stack: pop with no active frame")
	}
	p.padBlocks = p.padBlocks[:len(p.padBlocks)-1]
	n := p.checkpoints[len(p.checkpoints)-1]
	p.checkpoints = p.checkpoints[:len(p.checkpoints)-1]
	p.infos = p.infos[:n]
}

// getExceptionStorage returns the per-function scratch slot holding the
// live exception object, allocating it on first use.
func (p *landingPad) getExceptionStorage(c *Context) value.Value {
	if p.catchVar == nil {
		c.log.Debug().Msg("making new catch var")
		p.catchVar = c.allocaInEntry(lltypes.I8Ptr, "catchvar")
	}
	return p.catchVar
}

// construct synthesizes the dispatch code for the current handler list
// inside inBB: capture the exception, evaluate the type selector, replay
// finally bodies and test catch clauses innermost first, and resume
// unwinding when nothing matches.
func (p *landingPad) construct(c *Context, inBB *ir.Block) {
	c.log.Debug().Int("handlers", len(p.infos)).Msg("constructing landing pad")

	saved := c.block
	c.block = inBB

	ehPtr := c.block.NewCall(c.intrinsic(intrinsicEHException))

	// selector arguments: exception pointer, personality routine, then
	// one TypeInfo per catch in scope. Entries are front-inserted while
	// scanning the list forward, which leaves the innermost scope's
	// clauses first, in declaration order — the same precedence the
	// dispatch cascade below applies.
	var selArgs []value.Value
	hasFinally, hasCatch := false, false
	for i := range p.infos {
		h := &p.infos[i]
		if h.isFinally() {
			hasFinally = true
			continue
		}
		hasCatch = true
		if h.catchType == nil {
			util.ICE("landing pad: catch handler without a resolved class type")
		}
		selArgs = append([]value.Value{c.classInfo(h.catchType).ref}, selArgs...)
	}
	// a finally anywhere in scope needs the catch-all/cleanup entry so
	// the personality routine stops here even without a type match
	if hasFinally {
		selArgs = append(selArgs, constant.NewInt(lltypes.I32, 0))
	}
	personality := c.bitcast(c.runtimeFunc(c.cfg.Runtime.Personality), lltypes.I8Ptr)
	selArgs = append([]value.Value{ehPtr, personality}, selArgs...)

	// if some catch allocated storage, park the exception object there
	// before any handler or cleanup code gets a chance to run
	if hasCatch && p.catchVar != nil {
		c.block.NewStore(c.bitcast(ehPtr, lltypes.I8Ptr), p.catchVar)
	}

	sel := c.block.NewCall(c.intrinsic(intrinsicEHSelector), selArgs...)

	// walk a private copy: finally replay truncates the live list to
	// simulate having left the scope, and must not corrupt the state
	// later pushes depend on
	infos := append([]handler(nil), p.infos...)
	checkpoints := append([]int(nil), p.checkpoints...)
	for i := len(infos) - 1; i >= 0; i-- {
		h := &infos[i]
		if h.isFinally() {
			n := p.checkpoints[len(p.checkpoints)-1]
			p.checkpoints = p.checkpoints[:len(p.checkpoints)-1]
			p.infos = p.infos[:n]
			c.genStmt(h.finallyBody)
			continue
		}
		next := c.newBlock("eh.next")
		ehID := c.block.NewCall(c.intrinsic(intrinsicEHTypeidFor), c.classInfo(h.catchType).ref)
		match := c.block.NewICmp(enum.IPredEQ, sel, ehID)
		c.block.NewCondBr(match, h.target, next)
		c.block = next
	}
	p.infos = infos
	p.checkpoints = checkpoints

	// no catch matched and all finallys executed - resume unwind
	c.block.NewCall(c.runtimeFunc(c.cfg.Runtime.ResumeUnwind), ehPtr)
	c.block.NewUnreachable()

	c.block = saved
}

// allocaInEntry hoists an alloca into the function's entry block so its
// address stays valid for the whole function.
func (c *Context) allocaInEntry(t lltypes.Type, name string) *ir.InstAlloca {
	inst := ir.NewAlloca(t)
	inst.SetName(name)
	entry := c.fn.Blocks[0]
	entry.Insts = append(entry.Insts, inst)
	return inst
}
