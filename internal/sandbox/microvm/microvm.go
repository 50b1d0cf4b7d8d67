// Package microvm implements the WebAssembly guest dialect (§6) on top of
// github.com/tetratelabs/wazero, a pure-Go, zero-dependency WASM runtime —
// no cgo, no external interpreter process, matching the deployability bar
// the rest of this repo's sandboxed-execution code holds itself to. A
// guest image is a compiled .wasm module that imports one host function,
// "env.host_syscall", in the same numeric convention hostabi.Dispatcher
// exposes to the RISC-V backend, and exports a "resume" function the VM
// calls once per turn. The load-then-gas-metered-resume shape this file
// binds wazero into is grounded on other_examples/oisee-psil__scheduler.go's
// micro.VM usage (vm.Load, vm.Run, vm.Gas/vm.MaxGas, vm.MemRead/vm.MemWrite);
// the VM underneath is wazero's compiler-based engine rather than that
// file's bespoke stack machine.
package microvm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/ensiproject/ensi/internal/game/core"
	"github.com/ensiproject/ensi/internal/sandbox"
)

// callTariff is the fuel cost of one host_syscall call, matching the
// riscv backend's ecall tariff so the two dialects meter comparably.
// wazero's interpreter exposes no opcode-level gas hook the way the
// hand-rolled RISC-V core does, so fuel here is charged only at the
// host-call boundary rather than per WASM instruction.
const callTariff = 4

// memoryName is the name the guest module must export its linear memory
// under; wazero's default toolchains (TinyGo, wat2wasm, etc.) all use
// this name unless told otherwise.
const memoryName = "memory"

// VM is one guest's WASM interpreter. It is long-lived across turns (§4.9
// "the bot is a long-lived computation"); Load (re)instantiates the
// module, Resume suspends and resumes it fuel budget by fuel budget.
type VM struct {
	runtime wazero.Runtime
	ctx     context.Context

	mod     api.Module
	mem     api.Memory
	handler sandbox.Handler

	fuel uint64
	used uint64
}

// New returns a VM with its own wazero runtime and host module. The
// runtime is built once and reused across Load calls so repeated games
// against the same bot don't pay compilation cost twice.
func New() *VM {
	ctx := context.Background()
	runtime := wazero.NewRuntime(ctx)

	v := &VM{runtime: runtime, ctx: ctx}

	_, err := runtime.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(v.hostSyscall).
		Export("host_syscall").
		Instantiate(ctx)
	if err != nil {
		// The host module definition is static and always valid; a
		// failure here means the wazero API itself changed shape.
		panic(fmt.Sprintf("microvm: building host module: %v", err))
	}

	return v
}

// Load compiles and instantiates image as a fresh guest module, replacing
// whatever was previously loaded.
func (v *VM) Load(image []byte) error {
	if len(image) == 0 {
		return fmt.Errorf("microvm: empty program image")
	}

	if v.mod != nil {
		_ = v.mod.Close(v.ctx)
	}

	compiled, err := v.runtime.CompileModule(v.ctx, image)
	if err != nil {
		return fmt.Errorf("microvm: compile guest module: %w", err)
	}

	mod, err := v.runtime.InstantiateModule(v.ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return fmt.Errorf("microvm: instantiate guest module: %w", err)
	}

	mem := mod.Memory()
	if mem == nil {
		return fmt.Errorf("microvm: guest module exports no %q", memoryName)
	}

	v.mod, v.mem = mod, mem
	return nil
}

// PushBuffer writes buf into the guest's exported linear memory at
// baseAddr, overwriting whatever was there (§4.8).
func (v *VM) PushBuffer(buf []byte, baseAddr uint32) error {
	if v.mem == nil {
		return fmt.Errorf("microvm: no guest module loaded")
	}
	if !v.mem.Write(baseAddr, buf) {
		return fmt.Errorf("microvm: push buffer [%#x, %#x) overruns guest memory", baseAddr, uint64(baseAddr)+uint64(len(buf)))
	}
	return nil
}

func (v *VM) SetHandler(h sandbox.Handler) { v.handler = h }

// hostSyscall is the "env.host_syscall" import every guest module calls
// to reach hostabi.Dispatcher. It charges callTariff against the current
// budget and panics with a *core.GuestTrap on exhaustion or on any error
// the handler reports; wazero recovers a host function panic and
// surfaces it as the error returned from the exported call that
// triggered it, which is how Resume regains control without the guest
// cooperating.
func (v *VM) hostSyscall(_ context.Context, _ api.Module, num, a0, a1, a2, a3, a4 uint32) (ret uint32, stop uint32) {
	if v.used+callTariff > v.fuel {
		panic(&core.GuestTrap{Kind: core.TrapFuelExhausted, AtFuel: v.used})
	}
	v.used += callTariff

	if v.handler == nil {
		panic(&core.GuestTrap{Kind: core.TrapABIViolation, Detail: "no syscall handler bound", AtFuel: v.used})
	}

	result, err := v.handler.Syscall(num, [5]uint32{a0, a1, a2, a3, a4})
	if err != nil {
		trap, ok := err.(*core.GuestTrap)
		if !ok {
			trap = &core.GuestTrap{Kind: core.TrapABIViolation, Detail: err.Error()}
		}
		trap.AtFuel = v.used
		panic(trap)
	}

	if v.handler.Yielded() {
		return result, 1
	}
	return result, 0
}

// Resume calls the guest's exported "resume" function once. The guest is
// expected to run its own per-turn logic and call host_syscall as needed,
// stopping on its own once a syscall reports stop == 1; Resume's fuel
// accounting is entirely host_syscall's, so a guest that never calls out
// to the host runs to completion without ever being charged.
func (v *VM) Resume(fuel uint64) (sandbox.Result, error) {
	if v.mod == nil {
		return sandbox.Result{}, fmt.Errorf("microvm: no guest module loaded")
	}

	resumeFn := v.mod.ExportedFunction("resume")
	if resumeFn == nil {
		return sandbox.Result{}, fmt.Errorf("microvm: guest module exports no \"resume\" function")
	}

	v.fuel, v.used = fuel, 0

	_, err := resumeFn.Call(v.ctx)
	if err != nil {
		var trap *core.GuestTrap
		if errors.As(err, &trap) {
			return sandbox.Result{FuelUsed: v.used}, trap
		}
		return sandbox.Result{FuelUsed: v.used}, &core.GuestTrap{Kind: core.TrapIllegalInstruction, Detail: err.Error(), AtFuel: v.used}
	}

	return sandbox.Result{FuelUsed: v.used, Yielded: true}, nil
}
