package abi

import (
	"github.com/xplshn/glc/pkg/ast"
)

// intrinsicABI is the convention for compiler intrinsics: everything is
// passed and returned directly, exactly as lowered.
type intrinsicABI struct{}

// ForIntrinsics returns the strategy used when lowering intrinsic calls.
func ForIntrinsics() TargetABI { return intrinsicABI{} }

func (intrinsicABI) ReturnInArg(ft *ast.Type) bool { return false }
func (intrinsicABI) PassByVal(t *ast.Type) bool    { return false }
func (intrinsicABI) NewFunctionType(ft *ast.Type)  {}
func (intrinsicABI) DoneWithFunctionType()         {}

func (intrinsicABI) RewriteFunctionType(sig *Signature) {
	sig.rewritten = true
}
