/*
Package frame implements the per-frame command submission and presentation
loop, independent of the graphics API underneath.

A backend provides a Device (command lists, fences, views, pipeline objects
and a Queue) and a SwapChain. Setup creates one render target view per swap
chain buffer plus the recording contexts, and RenderFrame then does, for the
current back buffer:

	wait fence, reset list, bind root signature,
	barrier presentable -> render target, bind view, clear, set topology,
	barrier render target -> presentable, close, submit, present,
	query the next back buffer index

The frame index is never computed locally, it is always what the swap chain
reports after a present.

GPU work runs asynchronously. With SyncPerFrame each buffer has its own
command list and fence, so a list is only reset after the GPU signaled the
fence of its previous submission. SyncNone keeps the single list and never
waits, which is only safe when the GPU happens to be fast enough.

Every failure is fatal, errors returned by this package match
ErrGraphicsOperationFailed with errors.Is and unwrap to the backend cause.
*/
package frame
