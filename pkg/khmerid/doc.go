// Package khmerid decides whether recognized camera text shows a Cambodian
// national ID card, and rate-limits positive answers so a card held in front
// of the camera is reported once per cooldown window rather than once per frame.
//
// Quick start:
//
//	d, err := khmerid.New(khmerid.WithCooldown(time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, ok := d.Evaluate(ocrText, time.Now())
//	if ok {
//	    fmt.Println(res.Valid, res.Score)
//	}
//
// A Detector tracks one camera session and is safe for concurrent use.
package khmerid
