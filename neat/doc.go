// Package neat evolves the agent networks: genomes of node and connection
// genes, speciation by compatibility distance, stagnation and reproduction.
//
// The [NEAT], [DefaultGenome], [DefaultSpeciesSet], [DefaultStagnation] and
// [DefaultReproduction] sections of the run configuration map onto Config.
// A Population drives whole generations and is used to search for agents
// that solve a seed maze:
//
//	config, err := neat.LoadConfig("configs/mcc.ini")
//	if err != nil {
//		log.Fatalf("load config: %v", err)
//	}
//	pop, err := neat.NewPopulation(config)
//	if err != nil {
//		log.Fatalf("create population: %v", err)
//	}
//	for i := 0; i < 50; i++ {
//		winner, err := pop.RunGeneration(evalGenomes)
//		if err != nil {
//			log.Fatalf("generation %d: %v", pop.Generation, err)
//		}
//		if winner != nil {
//			break
//		}
//	}
//
// Outside a Population, single genomes are mutated in place with
// Genome.Mutate and compared with Genome.Distance; package nn turns a
// genome into a feed-forward network.
package neat
