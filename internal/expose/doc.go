// Package expose sequences the step-by-step reveal of page content.
//
// A page's list items (or any text ranges) are grouped; each group is
// either shown from the start or hidden until revealed. RevealForward and
// RevealBackward walk the hidden groups in document order, snapping or
// fading the group's text color alpha and element opacity. Fades run on an
// anim.Scheduler so they advance with the frame clock and can be finished
// or cancelled when the page is left.
package expose
