package palaver_test

import (
	"context"
	"fmt"

	"github.com/aretw0/palaver"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/dsl"
)

// ExampleNew walks the classic merchant exchange: greeting, a choice and a purchase.
func ExampleNew() {
	b := dsl.New("merchant", "Old Merchant")
	b.Start("start").Next("hello")
	b.Say("hello", "Hola").Next("menu")
	b.Choice("menu").Option(1, "Just looking", "bye").Option(2, "A sword, please", "buy")
	b.Buy("buy", "sword", 5).Success("bye").NotEnoughMoney("bye")
	b.End("bye")

	ctx := context.Background()
	game := palaver.New(b.Store(), palaver.WithStartMoney(5))
	sess, _ := game.NewSession(ctx)

	turn, _ := game.Start(ctx, sess.ID, "merchant")
	printEvents(turn.Events)
	turn, _ = game.Select(ctx, sess.ID, 1)
	printEvents(turn.Events)
	fmt.Println("money:", turn.Session.Money)

	// Output:
	// Old Merchant: Hola
	// [0] Just looking
	// [1] A sword, please
	// * Bought sword for 5 coins.
	// (conversation ended)
	// money: 0
}

func printEvents(events []domain.Event) {
	for _, e := range events {
		switch ev := e.(type) {
		case domain.DialogueLine:
			fmt.Printf("%s: %s\n", ev.Speaker, ev.Text)
		case domain.OptionsPresented:
			for _, o := range ev.Options {
				fmt.Printf("[%d] %s\n", o.Index, o.Text)
			}
		case domain.SystemMessage:
			fmt.Printf("* %s\n", ev.Text)
		case domain.ConversationEnded:
			fmt.Println("(conversation ended)")
		}
	}
}
