// Package anim schedules callbacks on a virtual clock.
//
// The clock only moves when the owner calls Advance, once per frame from the
// update loop. Callbacks run synchronously inside Advance, so they may touch
// documents and layouts without locking. Timers fire in deadline order;
// timers sharing a deadline fire in the order they were scheduled.
//
// Three kinds of task are supported:
//
//   - After runs a callback once after a delay.
//   - Every runs a callback at a fixed interval until it returns false.
//   - Animate calls a callback with progress in [0, 1] on every Advance
//     until the duration has elapsed. The final call always gets exactly 1.
//
// Finish completes a task immediately (animations receive 1), Cancel drops
// it without running it.
package anim
