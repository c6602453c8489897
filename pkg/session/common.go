package session

type senderState uint8

const (
	txAwaitInitiation senderState = iota // Polling for the receiver's 'C' or NAK
	txSendingBlock                       // Transmitting and acknowledging data blocks
	txSendingEOT                         // End of transfer dialogue
	txCompleted
	txFailed
)

type receiverState uint8

const (
	rxInit           receiverState = iota // Emit the initiation byte
	rxAwaitBlock                          // Waiting for SOH, EOT or CAN
	rxReceivingBlock                      // Inside a block, driving the frame decoder
	rxCompleted
	rxCancelled
)

// decodeResult is the outcome of reading one block after its SOH
type decodeResult uint8

const (
	decodeOk          decodeResult = iota
	decodeDuplicate                // Valid retransmission of the previous block
	decodeBadHeader                // Sequence byte or complement mismatch
	decodeBadChecksum              // Trailer does not match the payload
	decodeTimeout                  // A byte failed to arrive in time
)
